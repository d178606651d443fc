package models

type CommandType string

const (
	CommandStart   CommandType = "start"
	CommandHelp    CommandType = "help"
	CommandList    CommandType = "list"
	CommandBrief   CommandType = "brief"
	CommandUnknown CommandType = "unknown"
)

// Command описывает команду пользователя, полученную ботом.
type Command struct {
	ChatID    int64
	UserID    int64
	Text      string
	Username  string
	FirstName string
	LastName  string
	Type      CommandType
}
