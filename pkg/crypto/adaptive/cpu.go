package adaptive

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// hasAESHardware reports whether AES-GCM runs on dedicated instructions.
// GCM needs carry-less multiply as well as AES rounds.
func hasAESHardware() bool {
	switch runtime.GOARCH {
	case "amd64", "386":
		return cpu.X86.HasAES && cpu.X86.HasPCLMULQDQ
	case "arm64":
		return cpu.ARM64.HasAES && cpu.ARM64.HasPMULL
	case "s390x":
		return cpu.S390X.HasAES && cpu.S390X.HasAESGCM
	default:
		return false
	}
}
