package repoargs

type RepositoryName string

const (
	AccountRepoName      RepositoryName = "account"
	ProductRepoName      RepositoryName = "product"
	LedgerRepoName       RepositoryName = "ledger"
	OrderRepoName        RepositoryName = "order"
	FulfillmentRepoName  RepositoryName = "fulfillment"
	NotificationRepoName RepositoryName = "notification"
)
