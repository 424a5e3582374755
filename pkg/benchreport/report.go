// Package benchreport is the JSON schema written by the batch runner and
// read back by the chooser.
package benchreport

const Version = "gemmbench/v1"

type ReportGPU struct {
	Present       bool    `json:"present"`
	Device        int     `json:"device"`
	Name          string  `json:"name"`
	DriverVersion string  `json:"driver_version,omitempty"`
	CUDAVersion   string  `json:"cuda_version,omitempty"`
	VRAMTotalMB   float64 `json:"vram_total_mb"`
}

type ReportEnv struct {
	OS            string    `json:"os"`
	Arch          string    `json:"arch"`
	Kernel        string    `json:"kernel"`
	CPUModel      string    `json:"cpu_model"`
	CPUNumLogical int       `json:"cpu_num_logical"`
	CPUFeatures   []string  `json:"cpu_features"`
	Backend       string    `json:"backend"`
	GPU           ReportGPU `json:"gpu"`
}

type ReportParams struct {
	Iterations int     `json:"iterations"`
	Seed       *uint64 `json:"seed,omitempty"`
}

// Result is one measured (or failed) configuration. Throughput is in
// units of 1e12 operations per second; Unit says which.
type Result struct {
	Kind       string             `json:"kind"`
	Params     []int              `json:"params"`
	M          int                `json:"m"`
	N          int                `json:"n"`
	K          int                `json:"k"`
	TransA     int                `json:"trans_a"`
	TransB     int                `json:"trans_b"`
	TensorOp   int                `json:"tensor_op"`
	Algo       int                `json:"algo"`
	Precision  string             `json:"precision"`
	AvgMs      float64            `json:"avg_ms"`
	Throughput float64            `json:"throughput"`
	Unit       string             `json:"unit"`
	Extra      map[string]float64 `json:"extra,omitempty"`
	Error      string             `json:"error,omitempty"`
}

func (r Result) Failed() bool { return r.Error != "" }

type ReportMetrics struct {
	Measured          int     `json:"measured"`
	Failed            int     `json:"failed"`
	WallSecondsTotal  float64 `json:"wall_seconds_total"`
	GPUUtilMaxPercent int     `json:"gpu_util_max_percent"`
	GPUUtilAvgPercent float64 `json:"gpu_util_avg_percent"`
	GPUVRAMUsedMaxMB  float64 `json:"gpu_vram_used_max_mb"`
	GPUPowerMaxWatt   float64 `json:"gpu_power_max_watt"`
}

type Report struct {
	Version          string        `json:"version"`
	TimestampRFC3339 string        `json:"timestamp_rfc3339"`
	Label            string        `json:"label"`
	Env              ReportEnv     `json:"env"`
	Params           ReportParams  `json:"params"`
	Results          []Result      `json:"results"`
	Metrics          ReportMetrics `json:"metrics"`
}
