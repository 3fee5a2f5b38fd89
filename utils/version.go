package utils

// Set at build time with -ldflags "-X github.com/alpacahq/eventstore/utils.Tag=...".
var (
	Tag        = "dev"
	GitHash    string
	BuildStamp string
)
