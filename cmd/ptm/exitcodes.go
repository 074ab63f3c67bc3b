package main

// Exit codes
const (
	ExitSuccess       = 0 // Success
	ExitError         = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError   = 2 // Configuration error (invalid settings, missing credentials)
	ExitDataError     = 3 // Data error (dataset download or parse failure, embedding failure)
	ExitNotFound      = 4 // Patent, index or artifact set not found
	ExitTransferError = 5 // Object store upload or download failed
)
