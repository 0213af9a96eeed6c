package proc

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// parsePS parses the output of `ps -axo pid=,ppid=,comm=`.
// Lines that do not start with two integers are skipped.
func parsePS(r io.Reader) ([]Info, error) {
	var table []Info
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		ppid, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		// comm may contain spaces on macOS.
		name := strings.Join(fields[2:], " ")
		table = append(table, Info{PID: pid, PPID: ppid, Name: name})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ps output: %w", err)
	}
	return table, nil
}

// parseTasklist parses the output of `tasklist /FO CSV /NH`.
// tasklist does not report parent pids, so PPID is always zero.
func parseTasklist(r io.Reader) ([]Info, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var table []Info
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tasklist output: %w", err)
		}
		if len(record) < 2 {
			continue
		}
		pid, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil {
			continue
		}
		table = append(table, Info{PID: pid, Name: record[0]})
	}
	return table, nil
}
