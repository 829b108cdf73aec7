//go:build stringer

//go:generate go run golang.org/x/tools/cmd/stringer -linecomment -type Format -output zz_generated.format.stringer.go -trimprefix Format
//go:generate go run golang.org/x/tools/cmd/stringer -linecomment -type ValueKind -output zz_generated.valuekind.stringer.go -trimprefix ValueKind
//go:generate go run golang.org/x/tools/cmd/stringer -linecomment -type GGUFMetadataValueType -output zz_generated.ggufmetadatavaluetype.stringer.go -trimprefix GGUFMetadataValueType
//go:generate go run golang.org/x/tools/cmd/stringer -linecomment -type GGMLType -output zz_generated.ggmltype.stringer.go -trimprefix GGMLType
package weight_inspect

import _ "golang.org/x/tools/cmd/stringer"
