// Package gen builds the relational model of an OpenAPI document.
//
// The schemas loaded by compiler/load become a Graph of Types (entities)
// and Fields (properties). The Resolver then infers the Doctrine relation
// that every reference field implies, and the Writer emits the resolved
// model for the entity renderer.
//
// # Architecture
//
// The pipeline follows this flow:
//
//	OpenAPI document (components.schemas)
//	        ↓
//	   load.Document (ordered schemas and properties)
//	        ↓
//	   Graph (types and fields, no relations)
//	        ↓
//	   Resolver (O2O, M2O, O2M, M2M in that order)
//	        ↓
//	   Writer (model.json, model.yaml, snapshot.msgpack, schema.sql)
//
// # Key Types
//
//   - Graph: Holds the types of one document in declaration order
//   - Type: An entity with its fields and derived views
//   - Field: A property, its constraints and its resolved relation
//   - Rel: The relation kind (Unk, O2O, O2M, M2O, M2M)
//   - ColumnRef: A "Type.field" reference to the paired column
//   - Config: Global configuration of a run
//
// # Relations
//
// A field that links to another schema object ($ref or items.$ref) is
// classified by its type and its x-uselist hint:
//
//	integer or untyped, x-uselist: false  -> O2O, owns the join column
//	integer or untyped, no x-uselist      -> M2O, owns the join column
//	array, target links back with scalar  -> O2M, inverse of the M2O
//	array, target links back with array   -> M2M, both sides reference the
//	                                         other type's primary key
//
// An O2O field may name its inverse field with x-backref. Only one side of
// the pair may declare it.
//
// # Error Handling
//
// The package uses structured error types:
//
//   - SchemaError: Schema definition errors
//   - ConfigError: Configuration errors
//   - GenerationError: Output errors
//   - PrimaryKeyError: A related type has zero or several primary keys
//   - ReferencedColumnError: A pairing is missing, conflicting or declared twice
//   - PropertyTypeError: The inverse side of an M2O is not an array
//
// Each typed error matches its sentinel with errors.Is:
//
//	if _, err := g.Resolve(); errors.Is(err, gen.ErrPrimaryKey) {
//	    // Add an x-primary-key to the referenced schema.
//	}
//
// # Configuration
//
// Configuration is done via the functional options pattern:
//
//	cfg, err := gen.NewConfig(
//	    gen.WithBundle("AppBundle"),
//	    gen.WithTarget("./generated"),
//	    gen.WithFeatures(gen.FeatureYAML, gen.FeatureDDL),
//	)
package gen
