package snapshot

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the generated_at_utc format.
const TimestampLayout = "2006-01-02 15:04:05"

// FormatFormID renders an identifier as 0x followed by 8 upper-case hex digits.
func FormatFormID(id uint32) string {
	return fmt.Sprintf("0x%08X", id)
}

// FormatTimestamp renders t in UTC with second precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// EscapeString escapes backslash, double quote, newline, carriage return
// and tab. Every other byte is copied unchanged.
func EscapeString(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Encode writes snap as the exported document.
//
//	{
//	  "generated_at_utc": "2025-05-01 12:00:00",
//	  "quest_count": 1,
//	  "quests": [
//	    {
//	      "form_id": "0x00000001",
//	      "name": "Main Quest",
//	      "stage": 10
//	    }
//	  ]
//	}
func Encode(w io.Writer, snap Snapshot, generatedAt time.Time) error {
	bw := bufio.NewWriter(w)

	bw.WriteString("{\n")
	bw.WriteString(`  "generated_at_utc": "` + FormatTimestamp(generatedAt) + "\",\n")
	bw.WriteString(`  "quest_count": ` + strconv.Itoa(len(snap)) + ",\n")
	bw.WriteString("  \"quests\": [\n")

	for i, e := range snap {
		bw.WriteString("    {\n")
		bw.WriteString(`      "form_id": "` + FormatFormID(e.FormID) + "\",\n")
		bw.WriteString(`      "name": "` + EscapeString(e.Name) + "\",\n")
		bw.WriteString(`      "stage": ` + strconv.FormatUint(uint64(e.Stage), 10) + "\n")
		bw.WriteString("    }")
		if i+1 < len(snap) {
			bw.WriteString(",")
		}
		bw.WriteString("\n")
	}

	bw.WriteString("  ]\n")
	bw.WriteString("}\n")

	// bufio keeps the first write error and reports it on Flush.
	return bw.Flush()
}
