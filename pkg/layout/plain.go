package layout

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// plainGraph is the parsed Graphviz "plain" output. All values are in
// inches with the origin at the bottom-left, as Graphviz emits them.
type plainGraph struct {
	Width, Height float64
	Nodes         map[string]plainNode
	Edges         []plainEdge
}

type plainNode struct {
	Name          string
	X, Y          float64 // center
	Width, Height float64
}

type plainEdge struct {
	Tail, Head string
	Points     [][2]float64
	Color      string
}

// parsePlain reads Graphviz plain output:
//
//	graph scale width height
//	node name x y width height label style shape color fillcolor
//	edge tail head n x1 y1 .. xn yn [label xl yl] style color
//	stop
func parsePlain(data []byte) (*plainGraph, error) {
	pg := &plainGraph{Nodes: make(map[string]plainNode)}
	sawGraph := false

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields, err := splitPlainLine(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("plain line %d: %w", lineNo, err)
		}
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "graph":
			if len(fields) < 4 {
				return nil, fmt.Errorf("plain line %d: short graph statement", lineNo)
			}
			nums, err := parseFloats(fields[1:4])
			if err != nil {
				return nil, fmt.Errorf("plain line %d: %w", lineNo, err)
			}
			// Node and edge coordinates use the same unscaled units.
			pg.Width, pg.Height = nums[1], nums[2]
			sawGraph = true

		case "node":
			if len(fields) < 6 {
				return nil, fmt.Errorf("plain line %d: short node statement", lineNo)
			}
			nums, err := parseFloats(fields[2:6])
			if err != nil {
				return nil, fmt.Errorf("plain line %d: %w", lineNo, err)
			}
			pg.Nodes[fields[1]] = plainNode{
				Name:   fields[1],
				X:      nums[0],
				Y:      nums[1],
				Width:  nums[2],
				Height: nums[3],
			}

		case "edge":
			e, err := parsePlainEdge(fields)
			if err != nil {
				return nil, fmt.Errorf("plain line %d: %w", lineNo, err)
			}
			pg.Edges = append(pg.Edges, e)

		case "stop":
			if !sawGraph {
				return nil, fmt.Errorf("plain output has no graph statement")
			}
			return pg, nil

		default:
			return nil, fmt.Errorf("plain line %d: unknown statement %q", lineNo, fields[0])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !sawGraph {
		return nil, fmt.Errorf("plain output has no graph statement")
	}
	return pg, nil
}

func parsePlainEdge(fields []string) (plainEdge, error) {
	if len(fields) < 4 {
		return plainEdge{}, fmt.Errorf("short edge statement")
	}
	n, err := strconv.Atoi(fields[3])
	if err != nil || n < 0 {
		return plainEdge{}, fmt.Errorf("bad edge point count %q", fields[3])
	}
	end := 4 + 2*n
	if len(fields) < end {
		return plainEdge{}, fmt.Errorf("edge has %d point values, want %d", len(fields)-4, 2*n)
	}
	nums, err := parseFloats(fields[4:end])
	if err != nil {
		return plainEdge{}, err
	}
	e := plainEdge{Tail: fields[1], Head: fields[2], Points: make([][2]float64, n)}
	for i := 0; i < n; i++ {
		e.Points[i] = [2]float64{nums[2*i], nums[2*i+1]}
	}
	// The trailing fields are [label xl yl] style color; color is always last.
	if rest := fields[end:]; len(rest) > 0 {
		e.Color = rest[len(rest)-1]
	}
	return e, nil
}

// splitPlainLine splits on whitespace, keeping double-quoted strings whole.
func splitPlainLine(line string) ([]string, error) {
	var fields []string
	var cur strings.Builder
	inQuote, escaped, inField := false, false, false

	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case inQuote && r == '\\':
			escaped = true
		case r == '"':
			inQuote = !inQuote
			inField = true
		case !inQuote && (r == ' ' || r == '\t' || r == '\r'):
			if inField {
				fields = append(fields, cur.String())
				cur.Reset()
				inField = false
			}
		default:
			cur.WriteRune(r)
			inField = true
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote")
	}
	if inField {
		fields = append(fields, cur.String())
	}
	return fields, nil
}

func parseFloats(ss []string) ([]float64, error) {
	out := make([]float64, len(ss))
	for i, s := range ss {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", s)
		}
		out[i] = v
	}
	return out, nil
}
