package version

// Name identifies this service in logs and traces.
const Name = "fractalshop-auth"

// Version is overridden at build time via -ldflags.
var Version = "dev"
