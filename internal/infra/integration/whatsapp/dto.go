package whatsapp

type SendTextInput struct {
	PhoneNumber string
	Body        string
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}
