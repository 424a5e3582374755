package benchreport

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// cpuFeatures lists the SIMD extensions relevant to host GEMM kernels.
func cpuFeatures() []string {
	var flags []struct {
		name string
		has  bool
	}
	switch runtime.GOARCH {
	case "amd64", "386":
		flags = []struct {
			name string
			has  bool
		}{
			{"sse4.2", cpu.X86.HasSSE42},
			{"avx", cpu.X86.HasAVX},
			{"avx2", cpu.X86.HasAVX2},
			{"fma", cpu.X86.HasFMA},
			{"avx512f", cpu.X86.HasAVX512F},
			{"avx512vnni", cpu.X86.HasAVX512VNNI},
		}
	case "arm64":
		flags = []struct {
			name string
			has  bool
		}{
			{"asimd", cpu.ARM64.HasASIMD},
			{"fphp", cpu.ARM64.HasFPHP},
			{"asimdhp", cpu.ARM64.HasASIMDHP},
			{"asimddp", cpu.ARM64.HasASIMDDP},
			{"sve", cpu.ARM64.HasSVE},
		}
	}
	out := []string{}
	for _, f := range flags {
		if f.has {
			out = append(out, f.name)
		}
	}
	return out
}
