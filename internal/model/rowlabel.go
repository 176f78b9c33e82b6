package model // row label helpers shared by fixtures and handlers

import "strings" // strings provides trimming and case helpers

// RowLabel converts a zero-based index to an alphabetical row label like A, B, AA
func RowLabel(i int) string { // begin function to compute row label
	if i < 0 { // negative indices are invalid
		return "" // return empty string for invalid index
	}
	res := []rune{} // accumulate runes for the label
	for { // loop until all digits consumed
		rem := i % 26 // compute remainder in base 26
		res = append(res, rune('A'+rem)) // append current letter
		i = i/26 - 1 // reduce i for next digit
		if i < 0 { // break when no more digits
			break // exit loop
		}
	} // end for
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 { // reverse the runes to build the label
		res[j], res[k] = res[k], res[j] // swap positions
	}
	return string(res) // convert rune slice to string
}

// RowIndex converts a row label like A or AA into its zero-based index
func RowIndex(label string) (int, bool) { // begin function
	s := strings.ToUpper(strings.TrimSpace(label)) // normalize the label to upper case
	if s == "" { // empty label is invalid
		return -1, false // return false indicator
	}
	n := 0 // accumulator for numeric value
	for i := 0; i < len(s); i++ { // iterate over characters
		ch := s[i] // current byte
		if ch < 'A' || ch > 'Z' { // only ASCII A-Z are valid
			return -1, false // return invalid when encountering other letters
		}
		n = n*26 + int(ch-'A'+1) // accumulate base26 representation
	}
	return n - 1, true // return zero-based index and true
}

// NormalizeRowLabel strips non ASCII letters and digits and converts to uppercase
func NormalizeRowLabel(raw string) string { // begin normalization helper
	var b strings.Builder // create builder for efficiency
	for _, r := range raw { // iterate over runes
		switch { // classify rune
		case r >= 'a' && r <= 'z': // lowercase ASCII letters
			b.WriteRune(r - 32) // convert lowercase to uppercase
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9': // uppercase letters and digits
			b.WriteRune(r) // keep as is
		} // ignore all other characters
	} // end iteration
	return b.String() // return resulting string
}
