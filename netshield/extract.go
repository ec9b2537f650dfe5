package netshield

import "strings"

// ExtractEndpoints pulls source/destination addresses out of a CSV
// header/first-row pair. Columns named "src"/"src_ip" and "dst"/"dst_ip"
// (after trimming and lowercasing) are matched positionally against the data
// row. Extraction is best-effort: a missing column, short row, or empty value
// leaves that endpoint absent, never an error.
func ExtractEndpoints(headerLine, firstDataRow string) Endpoints {
	var endpoints Endpoints
	if headerLine == "" || firstDataRow == "" {
		return endpoints
	}

	columns := strings.Split(headerLine, ",")
	values := strings.Split(firstDataRow, ",")

	for i, column := range columns {
		if i >= len(values) {
			break
		}

		value := strings.TrimSpace(values[i])
		if value == "" {
			continue
		}

		switch strings.ToLower(strings.TrimSpace(column)) {
		case "src", "src_ip":
			if endpoints.Src == nil {
				v := value
				endpoints.Src = &v
			}
		case "dst", "dst_ip":
			if endpoints.Dst == nil {
				v := value
				endpoints.Dst = &v
			}
		}
	}

	return endpoints
}

// EndpointsFromPayload applies ExtractEndpoints to the first two lines of a
// raw upload. Files with fewer than two lines yield absent endpoints.
func EndpointsFromPayload(payload []byte) Endpoints {
	header, row := firstTwoLines(payload)
	if row == "" {
		return Endpoints{}
	}
	return ExtractEndpoints(header, row)
}

// FirstLine returns the header line of a raw upload with the trailing CR
// stripped. An empty payload yields an empty string.
func FirstLine(payload []byte) string {
	header, _ := firstTwoLines(payload)
	return header
}

func firstTwoLines(payload []byte) (string, string) {
	text := string(payload)

	var lines []string
	for _, line := range strings.SplitN(text, "\n", 3) {
		lines = append(lines, strings.TrimRight(line, "\r"))
	}

	header := ""
	row := ""
	if len(lines) > 0 {
		header = lines[0]
	}
	if len(lines) > 1 {
		row = lines[1]
	}
	return header, row
}
