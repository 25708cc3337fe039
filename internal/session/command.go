package session

import (
	"fmt"
	"strconv"
	"strings"
)

// Execute runs one textual command. The command set is fixed: goto,
// pixel and rotate. Anything else is reported back, never evaluated.
func (s *Session) Execute(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "goto":
		if len(fields) != 2 {
			s.message("usage: goto <±N|N>")
			return
		}
		arg := fields[1]
		n, err := strconv.Atoi(arg)
		if err != nil {
			s.message(fmt.Sprintf("goto: invalid position %q", arg))
			return
		}
		// A signed argument is a relative move; a bare number is an
		// absolute 1-based position.
		if strings.HasPrefix(arg, "+") || strings.HasPrefix(arg, "-") {
			s.ChangeFile(n, true)
		} else {
			s.ChangeFile(n-1, false)
		}

	case "pixel":
		if len(fields) != 3 {
			s.message("usage: pixel <x> <y>")
			return
		}
		x, errX := strconv.Atoi(fields[1])
		y, errY := strconv.Atoi(fields[2])
		if errX != nil || errY != nil {
			s.message("pixel: coordinates must be integers")
			return
		}
		s.InspectPixel(float64(x), float64(y))

	case "rotate":
		if len(fields) != 2 {
			s.message("usage: rotate <degrees>")
			return
		}
		deg, err := strconv.Atoi(fields[1])
		if err != nil {
			s.message(fmt.Sprintf("rotate: invalid angle %q", fields[1]))
			return
		}
		if err := s.Rotate(deg); err != nil {
			s.message(err.Error())
		}

	default:
		s.message(fmt.Sprintf("unknown command: %s", fields[0]))
	}
}
