// Package checks reports on the host environment: CPU, memory, disk and
// runtime details. It backs the `argus checks` command.
package checks

import (
	"fmt"
	"io"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// Report is a snapshot of the host environment
type Report struct {
	GoVersion     string
	OS            string
	Arch          string
	Platform      string
	CPUModel      string
	CPUCores      int
	LogicalCPUs   int
	TotalMemoryGB float64
	FreeMemoryGB  float64
	TotalDiskGB   float64
	FreeDiskGB    float64
}

const gb = 1 << 30

// Collect gathers the environment report. Probes that fail leave their
// fields zero rather than failing the whole report.
func Collect() *Report {
	r := &Report{
		GoVersion:   runtime.Version(),
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
		LogicalCPUs: runtime.NumCPU(),
	}

	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		r.CPUModel = infos[0].ModelName
	}
	if n, err := cpu.Counts(false); err == nil {
		r.CPUCores = n
	}
	if hi, err := host.Info(); err == nil {
		r.Platform = fmt.Sprintf("%s %s", hi.Platform, hi.PlatformVersion)
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		r.TotalMemoryGB = float64(vm.Total) / gb
		r.FreeMemoryGB = float64(vm.Available) / gb
	}
	if du, err := disk.Usage("."); err == nil {
		r.TotalDiskGB = float64(du.Total) / gb
		r.FreeDiskGB = float64(du.Free) / gb
	}

	return r
}

// Print writes the report in a readable layout
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "Go          %s\n", r.GoVersion)
	fmt.Fprintf(w, "OS/Arch     %s/%s\n", r.OS, r.Arch)
	if r.Platform != "" {
		fmt.Fprintf(w, "Platform    %s\n", r.Platform)
	}
	if r.CPUModel != "" {
		fmt.Fprintf(w, "CPU         %s (%d cores, %d logical)\n", r.CPUModel, r.CPUCores, r.LogicalCPUs)
	} else {
		fmt.Fprintf(w, "CPU         %d logical\n", r.LogicalCPUs)
	}
	if r.TotalMemoryGB > 0 {
		fmt.Fprintf(w, "Memory      %.1f GB total, %.1f GB available\n", r.TotalMemoryGB, r.FreeMemoryGB)
	}
	if r.TotalDiskGB > 0 {
		fmt.Fprintf(w, "Disk        %.1f GB total, %.1f GB free\n", r.TotalDiskGB, r.FreeDiskGB)
	}
}
