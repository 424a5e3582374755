// Package gpuinfo samples NVIDIA device state through nvidia-smi so that
// benchmark reports record which accelerator produced them.
package gpuinfo

import (
	"bytes"
	"context"
	"encoding/xml"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Sample contains a subset of nvidia-smi metrics.
type Sample struct {
	Name          string
	Index         int
	DriverVersion string
	CUDAVersion   string
	UtilPercent   int
	MemUsedMB     float64
	MemTotalMB    float64
	PowerWatt     float64
	SMClockMHz    int
}

// Minimal XML mapping for nvidia-smi -x -q
type smiLog struct {
	XMLName       xml.Name `xml:"nvidia_smi_log"`
	DriverVersion string   `xml:"driver_version"`
	CUDAVersion   string   `xml:"cuda_version"`
	GPU           smiGPU   `xml:"gpu"`
}

type smiGPU struct {
	ProductName string         `xml:"product_name"`
	Util        smiUtilization `xml:"utilization"`
	FBMem       smiFBMemory    `xml:"fb_memory_usage"`
	Power       smiPower       `xml:"power_readings"`
	Clocks      smiClocks      `xml:"clocks"`
}

type smiUtilization struct {
	GPU    string `xml:"gpu_util"`
	Memory string `xml:"memory_util"`
}

type smiFBMemory struct {
	Total string `xml:"total"`
	Used  string `xml:"used"`
	Free  string `xml:"free"`
}

type smiPower struct {
	Draw string `xml:"power_draw"`
}

type smiClocks struct {
	SMClock string `xml:"sm_clock"`
}

func Available() bool {
	_, err := exec.LookPath("nvidia-smi")
	return err == nil
}

// firstNumber parses the leading number of values like "66 %", "1024 MiB"
// or "70.25 W". Unparseable values read as zero.
func firstNumber(s string) float64 {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0
	}
	return v
}

func parse(b []byte, device int) (Sample, error) {
	var log smiLog
	if err := xml.NewDecoder(bytes.NewReader(b)).Decode(&log); err != nil {
		return Sample{}, err
	}
	gpu := log.GPU
	return Sample{
		Name:          strings.TrimSpace(gpu.ProductName),
		Index:         device,
		DriverVersion: strings.TrimSpace(log.DriverVersion),
		CUDAVersion:   strings.TrimSpace(log.CUDAVersion),
		UtilPercent:   int(firstNumber(gpu.Util.GPU)),
		MemUsedMB:     firstNumber(gpu.FBMem.Used),
		MemTotalMB:    firstNumber(gpu.FBMem.Total),
		PowerWatt:     firstNumber(gpu.Power.Draw),
		SMClockMHz:    int(firstNumber(gpu.Clocks.SMClock)),
	}, nil
}

// Query executes a single nvidia-smi -x -q sample for device.
func Query(ctx context.Context, device int) (Sample, error) {
	b, err := exec.CommandContext(ctx, "nvidia-smi", "-x", "-q", "-i", strconv.Itoa(device)).Output()
	if err != nil {
		return Sample{}, err
	}
	return parse(b, device)
}

// Peak aggregates samples taken over a run.
type Peak struct {
	Samples        int
	UtilMaxPercent int
	UtilAvgPercent float64
	MemUsedMaxMB   float64
	PowerMaxWatt   float64
}

func (p *Peak) Add(s Sample) {
	p.UtilAvgPercent = (p.UtilAvgPercent*float64(p.Samples) + float64(s.UtilPercent)) / float64(p.Samples+1)
	p.Samples++
	p.UtilMaxPercent = max(p.UtilMaxPercent, s.UtilPercent)
	p.MemUsedMaxMB = max(p.MemUsedMaxMB, s.MemUsedMB)
	p.PowerMaxWatt = max(p.PowerMaxWatt, s.PowerWatt)
}

// Watch samples device every interval until ctx is done, then returns the
// aggregate. Failed samples are passed to onErr and skipped.
func Watch(ctx context.Context, device int, interval time.Duration, onErr func(error)) Peak {
	var peak Peak
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return peak
		case <-ticker.C:
			qctx, cancel := context.WithTimeout(ctx, 1500*time.Millisecond)
			s, err := Query(qctx, device)
			cancel()
			if err != nil {
				if onErr != nil && ctx.Err() == nil {
					onErr(err)
				}
				continue
			}
			peak.Add(s)
		}
	}
}
