package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/chewxy/math32"
)

// ErrInvalidCommand is returned when a message carries no command the engine understands.
var ErrInvalidCommand = errors.New("bridge: invalid command")

// CommandType identifies what a command does.
type CommandType string

const (
	// CommandReposition animates the camera to a latitude/longitude at its current distance.
	CommandReposition CommandType = "reposition"

	// CommandMove places the camera eye at a world position.
	CommandMove CommandType = "move"

	// CommandRotate rotates a drawable about a principal axis.
	CommandRotate CommandType = "rotate"
)

// Command is one parsed instruction from a chat reply or a JSON message.
type Command struct {
	Type CommandType `json:"type"`

	// Lat and Lon are degrees, used by CommandReposition.
	Lat float32 `json:"lat,omitempty"`
	Lon float32 `json:"lon,omitempty"`

	// Position is the camera eye, used by CommandMove.
	Position common.Vec3 `json:"position,omitempty"`

	// ID names the drawable to rotate. Empty selects the globe.
	ID      string  `json:"id,omitempty"`
	Axis    string  `json:"axis,omitempty"`
	Degrees float32 `json:"degrees,omitempty"`
}

// bracketGroup matches the bracketed argument lists chat replies embed, e.g. "[40.7,-74]".
var bracketGroup = regexp.MustCompile(`\[([^\[\]]*)\]`)

// ParseCommands extracts every command from a message. A message starting with '{' is read
// as one JSON command; anything else is scanned for bracket groups:
//
//	[lat,lon]    reposition the camera
//	[x,y,z]      move the camera
//	[axis,deg]   rotate the globe, axis one of x, y, z
//
// Groups that match none of these are skipped.
//
// Parameters:
//   - msg: the message text
//
// Returns:
//   - []Command: the commands in message order
//   - error: ErrInvalidCommand when nothing could be parsed
func ParseCommands(msg string) ([]Command, error) {
	msg = strings.TrimSpace(msg)
	if strings.HasPrefix(msg, "{") {
		var cmd Command
		if err := json.Unmarshal([]byte(msg), &cmd); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
		}
		if err := cmd.Validate(); err != nil {
			return nil, err
		}
		return []Command{cmd}, nil
	}

	var cmds []Command
	for _, m := range bracketGroup.FindAllStringSubmatch(msg, -1) {
		cmd, err := parseGroup(m[1])
		if err != nil {
			continue
		}
		cmds = append(cmds, cmd)
	}
	if len(cmds) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCommand, msg)
	}
	return cmds, nil
}

func parseGroup(group string) (Command, error) {
	parts := strings.Split(group, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	if len(parts) == 2 {
		if axis := strings.ToLower(parts[0]); axis == "x" || axis == "y" || axis == "z" {
			deg, err := strconv.ParseFloat(parts[1], 32)
			if err != nil {
				return Command{}, err
			}
			cmd := Command{Type: CommandRotate, Axis: axis, Degrees: float32(deg)}
			return cmd, cmd.Validate()
		}
	}

	nums := make([]float32, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 32)
		if err != nil {
			return Command{}, err
		}
		nums[i] = float32(v)
	}

	var cmd Command
	switch len(nums) {
	case 2:
		cmd = Command{Type: CommandReposition, Lat: nums[0], Lon: nums[1]}
	case 3:
		cmd = Command{Type: CommandMove, Position: common.Vec3{nums[0], nums[1], nums[2]}}
	default:
		return Command{}, fmt.Errorf("%w: %d values", ErrInvalidCommand, len(nums))
	}
	return cmd, cmd.Validate()
}

// Validate checks the fields the command type needs.
func (c Command) Validate() error {
	switch c.Type {
	case CommandReposition:
		if c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
			return fmt.Errorf("%w: lat=%g lon=%g out of range", ErrInvalidCommand, c.Lat, c.Lon)
		}
	case CommandMove:
		for _, v := range c.Position {
			if math32.IsNaN(v) || math32.IsInf(v, 0) {
				return fmt.Errorf("%w: position %v", ErrInvalidCommand, c.Position)
			}
		}
	case CommandRotate:
		if _, err := AxisVector(c.Axis); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: type %q", ErrInvalidCommand, c.Type)
	}
	return nil
}

// AxisVector maps "x", "y" or "z" to its unit vector.
func AxisVector(axis string) (common.Vec3, error) {
	switch strings.ToLower(axis) {
	case "x":
		return common.Vec3{1, 0, 0}, nil
	case "y":
		return common.Vec3{0, 1, 0}, nil
	case "z":
		return common.Vec3{0, 0, 1}, nil
	default:
		return common.Vec3{}, fmt.Errorf("%w: axis %q", ErrInvalidCommand, axis)
	}
}
