package notification

// System identifies a delivery channel (e.g. email, SMS).
type System string

const (
	EmailSystem System = "email"
	SMSSystem   System = "sms"
)

// Data carries one outbound notification
type Data struct {
	To      string            // Recipient identifier (email address, phone number)
	Subject string            // Optional subject for channels that support one
	Body    string            // Message content
	Fields  map[string]string // Additional channel metadata
}

// Notifier delivers a notification over one channel
type Notifier interface {
	Send(data Data) error
}
