// Package schemagen provides example usage for schemagen documentation.
package schemagen

import (
	"github.com/broady/schemakit/schemagen"
)

func exampleFromTypes() {
	// [snippet:from-types]
	schemagen.FromTypes(
		User{},
		CreateUserRequest{},
		ListUsersResponse{},
	).ToDir("./schemas")
	// [/snippet:from-types]
}

func exampleFromPackages() {
	// [snippet:from-packages]
	schemagen.FromPackages("github.com/myorg/myapp/api").
		Types("User", "Order").
		ToDir("./schemas")
	// [/snippet:from-packages]
}

func exampleConfig() {
	// [snippet:config]
	schemagen.FromTypes(User{}).
		Dialect("openapi3").     // "jsonschema" | "openapi3" | "swagger2"
		NullHandling("notnull"). // "nullable" | "notnull"
		CaseFormat("lc").        // lowerCamel names for untagged fields
		Flatten().               // Derived fields replace embedded ones
		Format("yaml").          // "json" | "yaml"
		ToDir("./schemas")
	// [/snippet:config]
}

func exampleProvider() {
	// [snippet:provider]
	schemagen.FromTypes(User{}).
		Provider("reflection"). // No source analysis
		Enum(RoleAdmin, RoleMember).
		ToDir("./schemas")
	// [/snippet:provider]
}

// Types used by snippets
type CreateUserRequest struct{}
type ListUsersResponse struct{}

// Keep imports used
var (
	_ = exampleFromTypes
	_ = exampleFromPackages
	_ = exampleConfig
	_ = exampleProvider
)
