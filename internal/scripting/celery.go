package scripting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/farmdemo/server/internal/data"
)

// PinLookup resolves named pins to pin numbers.
type PinLookup interface {
	Peripheral(id int) (data.Peripheral, bool)
}

// Farmware labels that map onto camera macros.
const (
	labelWeedDetector = "plant-detection"
	labelSoilHeight   = "Measure Soil Height"
)

// CsToLua translates one sequence step into a line of Lua. Steps with no
// Lua equivalent become an error toast, and steps that cannot run at all
// (an unknown farmware or a missing named pin) become the empty program.
func CsToLua(step data.Node, pins PinLookup) string {
	switch step.Kind {
	case "emergency_lock":
		return "emergency_lock()"
	case "emergency_unlock":
		return "emergency_unlock()"
	case "find_home":
		return fmt.Sprintf("find_home(%s)", luaQuote(str(step.Arg("axis"))))
	case "home":
		return fmt.Sprintf("go_to_home(%s)", luaQuote(str(step.Arg("axis"))))
	case "wait":
		return fmt.Sprintf("wait(%s)", luaNumber(step.Arg("milliseconds")))
	case "send_message":
		call := fmt.Sprintf("send_message(%s, %s",
			luaQuote(str(step.Arg("message_type"))), luaQuote(str(step.Arg("message"))))
		var chans []string
		for _, child := range step.Body {
			if child.Kind == "channel" {
				chans = append(chans, str(child.Arg("channel_name")))
			}
		}
		if len(chans) > 0 {
			call += ", " + luaQuote(strings.Join(chans, ","))
		}
		return call + ")"
	case "take_photo":
		return "take_photo()"
	case "execute_script":
		switch str(step.Arg("label")) {
		case labelWeedDetector:
			return "detect_weeds()"
		case labelSoilHeight:
			return "measure_soil_height()"
		}
		return ""
	case "move_relative":
		return fmt.Sprintf("move_relative(%s, %s, %s)",
			luaNumber(step.Arg("x")), luaNumber(step.Arg("y")), luaNumber(step.Arg("z")))
	case "move_absolute":
		loc, _ := asNode(step.Arg("location"))
		if loc.Kind != "coordinate" {
			return notImplemented("move_absolute " + loc.Kind + " is not implemented")
		}
		return fmt.Sprintf("move_absolute(%s, %s, %s)",
			luaNumber(loc.Arg("x")), luaNumber(loc.Arg("y")), luaNumber(loc.Arg("z")))
	case "move":
		body := step.Body
		if body == nil {
			body = []data.Node{}
		}
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(body); err != nil {
			return notImplemented("move body could not be encoded")
		}
		return fmt.Sprintf("_move(%s)", luaQuote(strings.TrimRight(buf.String(), "\n")))
	case "write_pin":
		pin, ok := pinNumber(step.Arg("pin_number"), pins)
		if !ok {
			return ""
		}
		mode := "digital"
		if truthy(step.Arg("pin_mode")) {
			mode = "analog"
		}
		return fmt.Sprintf("write_pin(%s, %s, %s)", pin, luaQuote(mode), luaNumber(step.Arg("pin_value")))
	case "toggle_pin":
		pin, ok := pinNumber(step.Arg("pin_number"), pins)
		if !ok {
			return ""
		}
		return fmt.Sprintf("toggle_pin(%s)", pin)
	case "lua":
		return str(step.Arg("lua"))
	}
	return notImplemented("celeryscript " + step.Kind + " is not implemented")
}

func notImplemented(msg string) string {
	return fmt.Sprintf("toast(%s, %s)", luaQuote(msg), luaQuote("error"))
}

// pinNumber accepts a plain pin number or a named_pin node that refers to a
// peripheral.
func pinNumber(v any, pins PinLookup) (string, bool) {
	node, isNode := asNode(v)
	if !isNode {
		return luaNumber(v), true
	}
	id, ok := toInt(node.Arg("pin_id"))
	if !ok || pins == nil {
		return "", false
	}
	p, ok := pins.Peripheral(id)
	if !ok {
		return "", false
	}
	return strconv.Itoa(p.Pin), true
}

// asNode reads a nested node decoded as a generic map.
func asNode(v any) (data.Node, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return data.Node{}, false
	}
	n := data.Node{Kind: str(m["kind"])}
	n.Args, _ = m["args"].(map[string]any)
	return n, true
}

func str(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	}
	return luaNumber(v)
}

func luaNumber(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			return v
		}
		return luaQuote(v)
	case bool:
		return strconv.FormatBool(v)
	}
	return fmt.Sprint(v)
}

func toInt(v any) (int, bool) {
	switch v := v.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

func truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	}
	n, ok := toInt(v)
	return !ok || n != 0
}

// luaQuote renders s as a double-quoted Lua string literal.
func luaQuote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if c < 0x20 || c == 0x7f {
				fmt.Fprintf(&b, `\%03d`, c)
				continue
			}
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
