package email

// Message - одно транзакционное письмо
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// SendResult - результат успешной отправки
type SendResult struct {
	MessageID string `json:"messageId"`
}
