//go:build !unix

package benchreport

func kernelRelease() string { return "" }
