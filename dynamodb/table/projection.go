package table

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ProjectionKind selects which attributes a secondary index copies from the table.
type ProjectionKind string

const (
	ProjectAll      ProjectionKind = "ALL"
	ProjectOnlyKeys ProjectionKind = "KEYS_ONLY"
	// In addition to the attributes described in KEYS_ONLY, the secondary index
	// will include the non-key attributes listed in NonKeyAttributes.
	ProjectSubset ProjectionKind = "INCLUDE"
)

type Projection struct {
	Kind             ProjectionKind `json:"ProjectionType" yaml:"projectionType"`
	NonKeyAttributes []string       `json:"NonKeyAttributes,omitempty" yaml:"nonKeyAttributes,omitempty"`
}

// ProjectionAll is what an index gets when it declares no projection.
func ProjectionAll() Projection {
	return Projection{Kind: ProjectAll}
}

// Validate enforces that NonKeyAttributes is present exactly when Kind is INCLUDE.
func (p Projection) Validate() error {
	switch p.Kind {
	case ProjectAll, ProjectOnlyKeys:
		if len(p.NonKeyAttributes) > 0 {
			return fmt.Errorf("projection %s does not accept NonKeyAttributes", p.Kind)
		}
	case ProjectSubset:
		if len(p.NonKeyAttributes) == 0 {
			return fmt.Errorf("projection INCLUDE requires NonKeyAttributes")
		}
	default:
		return fmt.Errorf("unknown projection type %q", p.Kind)
	}
	return nil
}

func (p Projection) ddb() *types.Projection {
	proj := &types.Projection{ProjectionType: types.ProjectionType(p.Kind)}
	if len(p.NonKeyAttributes) > 0 {
		proj.NonKeyAttributes = append([]string(nil), p.NonKeyAttributes...)
	}
	return proj
}

// ProjectionFromDDB converts an SDK projection; nil yields the zero Projection.
func ProjectionFromDDB(p *types.Projection) Projection {
	if p == nil {
		return Projection{}
	}
	proj := Projection{Kind: ProjectionKind(p.ProjectionType)}
	if len(p.NonKeyAttributes) > 0 {
		proj.NonKeyAttributes = append([]string(nil), p.NonKeyAttributes...)
	}
	return proj
}
