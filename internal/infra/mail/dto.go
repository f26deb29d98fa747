package mail

type JobOfferData struct {
	WorkerName string
	LeadName   string
	City       string
	Service    string
	DistanceKM string
	Sender     string
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Sender   string // human name used in message signatures
}
