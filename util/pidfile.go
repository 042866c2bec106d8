package util

import (
	"os"
	"strconv"
	"time"

	ps "github.com/mitchellh/go-ps"
)

// Reconciliation runs must not overlap: two concurrent scans acting on
// the same buckets would race each other's repairs. The CLI writes a
// pid file before scanning and refuses to start if another live
// process holds it.

// AnotherRunIsActive returns true if the pid file at pathToFile
// contains the pid of a different, still-running process.
func AnotherRunIsActive(pathToFile string) bool {
	if !FileExists(pathToFile) {
		return false
	}
	pid := ReadPidFile(pathToFile)
	if pid == 0 || pid == os.Getpid() {
		return false
	}
	return ProcessIsRunning(pid)
}

// ReadPidFile returns the pid from the specified file, or zero if the
// file is missing or unparsable.
func ReadPidFile(pathToFile string) int {
	data, err := os.ReadFile(pathToFile)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(string(data))
	if err != nil {
		return 0
	}
	return pid
}

// WritePidFile writes this process' pid to the specified file.
func WritePidFile(pathToFile string) error {
	return os.WriteFile(pathToFile, []byte(strconv.Itoa(os.Getpid())), 0664)
}

// DeletePidFile removes the pid file written by this process.
func DeletePidFile(pathToFile string) error {
	if !FileExists(pathToFile) {
		return nil
	}
	return os.Remove(pathToFile)
}

// AgeOfPidFile returns the time elapsed since the pid file was last
// modified.
func AgeOfPidFile(pathToFile string) (time.Duration, error) {
	fileStat, err := os.Stat(pathToFile)
	if err != nil {
		return 0, err
	}
	return time.Since(fileStat.ModTime()), nil
}

// ProcessIsRunning returns true if the process with pid is running.
// This uses go-ps internally because golang's os.FindProcess always
// returns a process on *nix, even when no process with that pid is
// running.
func ProcessIsRunning(pid int) bool {
	proc, _ := ps.FindProcess(pid)
	return proc != nil
}
