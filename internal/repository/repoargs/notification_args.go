package repoargs

type CreateNotification struct {
	AccountID int64
	Title     string
	Message   string
	Kind      string
	RelatedID *int64
}
