package swaps

// fieldNames are the columns of a data line, in order.
var fieldNames = [...]string{"source", "kind", "size", "used", "priority"}

func parseLine(line []byte) (Entry, error) {
	var tokens [len(fieldNames)][]byte
	rest := line
	for i, name := range fieldNames {
		tokens[i], rest = nextToken(rest)
		if tokens[i] == nil {
			return Entry{}, &RecordError{Field: name}
		}
	}
	// anything after the fifth field is ignored

	var fields [len(fieldNames)][]byte
	for i, token := range tokens {
		decoded, err := decodeField(token)
		if err != nil {
			return Entry{}, &FieldError{Field: fieldNames[i], Err: err}
		}
		fields[i] = decoded
	}
	return Entry{
		Source:   fields[0],
		Kind:     fields[1],
		Size:     fields[2],
		Used:     fields[3],
		Priority: fields[4],
	}, nil
}

// nextToken returns the next run of non-whitespace bytes and the remainder
// of data after it. token is nil if data holds only whitespace.
func nextToken(data []byte) (token, rest []byte) {
	start := 0
	for start < len(data) && isSpace(data[start]) {
		start++
	}
	if start == len(data) {
		return nil, nil
	}
	end := start
	for end < len(data) && !isSpace(data[end]) {
		end++
	}
	return data[start:end], data[end:]
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// decodeField undoes the kernel's octal escaping (\ooo) of a single field.
func decodeField(token []byte) ([]byte, error) {
	out := make([]byte, 0, len(token))
	for i := 0; i < len(token); i++ {
		b := token[i]
		if b != '\\' {
			out = append(out, b)
			continue
		}
		if len(token)-i-1 < 3 {
			return nil, &EscapeError{Offset: i, Truncated: true}
		}
		var code uint
		for j := i + 1; j <= i+3; j++ {
			digit := token[j]
			if digit < '0' || digit > '7' {
				return nil, &EscapeError{Offset: j, Digit: digit}
			}
			code = code*8 + uint(digit-'0')
		}
		// \400 and above keep only the low byte
		out = append(out, byte(code))
		i += 3
	}
	return out, nil
}
