package version

// BuildVersion is set at build time (-ldflags "-X github.com/clambin/ledrotator/internal/version.BuildVersion=...")
var BuildVersion = "change-me"
