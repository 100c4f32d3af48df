package buildinfo

// Version is the release of testmod.
const Version = "1.4.2"

func InternalFunc() {}
