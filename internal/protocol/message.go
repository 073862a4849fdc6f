package protocol

import (
	"fmt"
	"strings"
)

// Encode renders a command and its arguments as one wire frame.
func Encode(cmd string, args ...any) string {
	if len(args) == 0 {
		return cmd + frameEnd
	}
	fields := make([]string, 0, len(args)+1)
	fields = append(fields, cmd)
	for _, arg := range args {
		fields = append(fields, fmt.Sprint(arg))
	}
	return strings.Join(fields, "#") + frameEnd
}
