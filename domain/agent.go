package domain

type ChatRequest struct {
	Text string `json:"text"`
}

type ChatReply struct {
	Reply string `json:"reply"`
}
