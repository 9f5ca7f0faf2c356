package internal

const (
	AppName    = "WorkBridge.Calling"
	AppVersion = "1.2.0"
)
