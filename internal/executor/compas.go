package executor

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"compasview/internal/scene"
)

// anonNamespace seeds ids for objects the server sent without a guid, so the
// same payload always maps to the same id.
var anonNamespace = uuid.MustParse("6f0d1c52-8c1e-4d37-9b55-2a8a3c1f4e90")

type compasEnvelope struct {
	DType string          `json:"dtype"`
	GUID  string          `json:"guid"`
	Data  json.RawMessage `json:"data"`
}

// NormalizeAll converts COMPAS JSON objects to descriptors. Entries that
// cannot be understood come back with an unknown kind so that the
// synchronizer reports them.
func NormalizeAll(raws []json.RawMessage) []scene.Descriptor {
	out := make([]scene.Descriptor, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Normalize(raw))
	}
	return out
}

// Normalize converts one COMPAS object. Both the wrapped form
// ({dtype, guid, data}) and the bare data form are accepted; for the bare
// form the kind is inferred from the data's shape.
func Normalize(raw json.RawMessage) scene.Descriptor {
	var env compasEnvelope
	var data any
	if err := json.Unmarshal(raw, &env); err == nil && env.DType != "" {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			data = nil
		}
	} else {
		env = compasEnvelope{GUID: env.GUID}
		if err := json.Unmarshal(raw, &data); err != nil {
			return scene.Descriptor{ID: anonID(raw), Kind: "invalid"}
		}
	}

	kind := env.DType
	if kind == "" {
		kind = inferKind(data)
	}
	desc := scene.Descriptor{
		ID:         strings.TrimSpace(env.GUID),
		Kind:       kind,
		Parameters: map[string]any{},
	}
	if desc.ID == "" {
		desc.ID = anonID(raw)
	}

	fields, _ := data.(map[string]any)
	switch scene.ParseKind(kind) {
	case scene.KindPoint:
		if pos, ok := scene.AsVec3(data); ok {
			desc.Placement.Position = pos
		} else if pos, ok := scene.AsVec3(fields["point"]); ok {
			desc.Placement.Position = pos
		}
	case scene.KindBox:
		copyParams(desc.Parameters, fields, "xsize", "ysize", "zsize")
		desc.Placement = framePlacement(fields)
	case scene.KindSphere:
		copyParams(desc.Parameters, fields, "radius")
		desc.Placement = framePlacement(fields)
	case scene.KindCylinder:
		copyParams(desc.Parameters, fields, "radius", "height")
		desc.Placement = framePlacement(fields)
		if circle, ok := fields["circle"].(map[string]any); ok {
			if _, set := desc.Parameters["radius"]; !set {
				copyParams(desc.Parameters, circle, "radius")
			}
			if plane, ok := circle["plane"].([]any); ok && len(plane) > 0 {
				if pos, ok := scene.AsVec3(plane[0]); ok {
					desc.Placement.Position = pos
				}
			}
		}
	case scene.KindMesh:
		vertices, faces := meshData(fields)
		if vertices != nil {
			desc.Parameters["vertices"] = vertices
		}
		if faces != nil {
			desc.Parameters["faces"] = faces
		}
	default:
		desc.Parameters = fields
	}
	return desc
}

func anonID(raw []byte) string {
	return "anon-" + uuid.NewSHA1(anonNamespace, raw).String()
}

func inferKind(data any) string {
	if _, ok := scene.AsVec3(data); ok {
		return "Point"
	}
	fields, ok := data.(map[string]any)
	if !ok {
		return ""
	}
	has := func(key string) bool {
		_, ok := fields[key]
		return ok
	}
	switch {
	case has("xsize") && has("ysize") && has("zsize"):
		return "Box"
	case has("vertex") && has("face"):
		return "Mesh"
	case has("height") && (has("radius") || has("circle")):
		return "Cylinder"
	case has("radius"):
		return "Sphere"
	default:
		return ""
	}
}

func copyParams(dst map[string]any, src map[string]any, keys ...string) {
	for _, key := range keys {
		if value, ok := src[key]; ok {
			dst[key] = value
		}
	}
}

// framePlacement reads frame.point (with optional axes) or a legacy
// top-level point.
func framePlacement(fields map[string]any) scene.Placement {
	var placement scene.Placement
	if frame, ok := fields["frame"].(map[string]any); ok {
		if pos, ok := scene.AsVec3(frame["point"]); ok {
			placement.Position = pos
		}
		xaxis, okX := scene.AsVec3(frame["xaxis"])
		yaxis, okY := scene.AsVec3(frame["yaxis"])
		if okX && okY {
			placement.Orientation = &scene.Frame{XAxis: xaxis, YAxis: yaxis}
		}
		return placement
	}
	if pos, ok := scene.AsVec3(fields["point"]); ok {
		placement.Position = pos
	}
	return placement
}

// meshData flattens COMPAS's keyed vertex and face maps into index lists.
// Vertex keys are renumbered in ascending key order.
func meshData(fields map[string]any) ([]any, []any) {
	vertexMap, ok := fields["vertex"].(map[string]any)
	if !ok {
		return nil, nil
	}
	keys := sortedKeys(vertexMap)
	position := make(map[string]int, len(keys))
	vertices := make([]any, 0, len(keys))
	for i, key := range keys {
		position[key] = i
		if v, ok := scene.AsVec3(vertexMap[key]); ok {
			vertices = append(vertices, v)
		} else {
			vertices = append(vertices, vertexMap[key])
		}
	}

	faceMap, ok := fields["face"].(map[string]any)
	if !ok {
		return vertices, nil
	}
	faces := make([]any, 0, len(faceMap))
	for _, fkey := range sortedKeys(faceMap) {
		rawIndices, ok := faceMap[fkey].([]any)
		if !ok {
			faces = append(faces, faceMap[fkey])
			continue
		}
		face := make([]any, 0, len(rawIndices))
		for _, rawIndex := range rawIndices {
			f, ok := scene.AsFloat(rawIndex)
			if !ok {
				face = append(face, rawIndex)
				continue
			}
			key := strconv.FormatInt(int64(f), 10)
			if idx, ok := position[key]; ok {
				face = append(face, float64(idx))
			} else {
				face = append(face, float64(-1))
			}
		}
		faces = append(faces, face)
	}
	return vertices, faces
}

// sortedKeys orders numeric keys numerically and the rest lexically after
// them.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}
