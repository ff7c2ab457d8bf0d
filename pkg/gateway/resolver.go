package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ohler55/ojg/jp"

	"github.com/getmockd/schemagate/pkg/apierror"
	"github.com/getmockd/schemagate/pkg/schema"
)

// PrimaryPrefix prefixes the key of core protocol schemas.
const PrimaryPrefix = "core_"

var (
	coreVersionPath = jp.MustParseString("$.context.core_version")
	versionPath     = jp.MustParseString("$.context.version")
	domainPath      = jp.MustParseString("$.context.domain")

	// Keys must not be able to leave the schema directory.
	keySanitizer = strings.NewReplacer("/", "_", ":", "_")
)

// RequestContext holds the request fields the schema key derives from.
type RequestContext struct {
	Version string
	Domain  string
}

// ExtractContext reads the version and domain from a JSON request body.
// context.core_version is preferred over context.version. A body that is
// not JSON yields an empty RequestContext.
func ExtractContext(body []byte) RequestContext {
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return RequestContext{}
	}

	rc := RequestContext{Domain: firstString(domainPath, data)}
	// A zero core_version (0, false) counts as unset.
	switch v := coreVersionPath.First(data); v {
	case false, 0.0:
	default:
		rc.Version = stringify(v)
	}
	if rc.Version == "" {
		rc.Version = firstString(versionPath, data)
	}
	return rc
}

func firstString(expr jp.Expr, data any) string {
	return stringify(expr.First(data))
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any, []any:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// PrimaryKey returns the core schema key for version.
func PrimaryKey(version string) schema.Key {
	return schema.Key(PrimaryPrefix + version)
}

// SecondaryKey returns the domain-qualified schema key, with every "/" and
// ":" replaced by "_".
func SecondaryKey(domain, version string) schema.Key {
	return schema.Key(keySanitizer.Replace(domain + "_" + version))
}

// Policy controls domain-qualified (layer 2) schema lookup.
type Policy struct {
	// UseSecondary enables the domain-qualified lookup.
	UseSecondary bool
	// MandateSecondary rejects requests whose domain schema is not installed.
	MandateSecondary bool
}

// Catalog reports which schema documents are installed.
type Catalog interface {
	Exists(key schema.Key) bool
}

// Resolver derives the schema key of a request.
type Resolver struct {
	catalog Catalog
	policy  Policy
}

// NewResolver creates a Resolver.
func NewResolver(catalog Catalog, policy Policy) *Resolver {
	return &Resolver{catalog: catalog, policy: policy}
}

// Resolve returns the schema key for rc. With the secondary tier enabled the
// domain-qualified key wins when its document is installed; otherwise the
// core key is used, unless the secondary tier is mandated, in which case a
// KindConfigMissing error with status 422 is returned.
//
// The existence check races with concurrent changes to the schema
// directory; schema deployment is assumed static while serving.
func (r *Resolver) Resolve(rc RequestContext) (schema.Key, error) {
	primary := PrimaryKey(rc.Version)
	if !r.policy.UseSecondary {
		return primary, nil
	}

	secondary := SecondaryKey(rc.Domain, rc.Version)
	if r.catalog != nil && r.catalog.Exists(secondary) {
		return secondary, nil
	}

	if r.policy.MandateSecondary {
		message := fmt.Sprintf("Layer 2 config file %s%s is not installed and it is marked as required in configuration", secondary, schema.Extension)
		return "", apierror.New(apierror.KindConfigMissing, message, http.StatusUnprocessableEntity, nil)
	}
	return primary, nil
}
