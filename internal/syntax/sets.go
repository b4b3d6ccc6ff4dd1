package syntax

// keywords, types and special identify the closed vocabularies the
// tokenizer classifies bare identifiers against. Ported from
// TracySourceView.cpp's GetKeywords/GetTypes/GetSpecial, since spec.md
// does not itself enumerate the C/C++ keyword set.
var keywords = buildSet(
	"alignas", "alignof", "and", "and_eq", "asm", "atomic_cancel", "atomic_commit", "atomic_noexcept",
	"bitand", "bitor", "break", "case", "catch", "class", "compl", "concept", "const", "consteval",
	"constexpr", "constinit", "const_cast", "continue", "co_await", "co_return", "co_yield", "decltype",
	"default", "delete", "do", "dynamic_cast", "else", "enum", "explicit", "export", "extern", "for",
	"friend", "if", "inline", "mutable", "namespace", "new", "noexcept", "not", "not_eq", "operator",
	"or", "or_eq", "private", "protected", "public", "reflexpr", "register", "reinterpret_cast",
	"return", "requires", "sizeof", "static", "static_assert", "static_cast", "struct", "switch",
	"synchronized", "template", "thread_local", "throw", "try", "typedef", "typeid", "typename",
	"union", "using", "virtual", "volatile", "while", "xor", "xor_eq", "override", "final", "import",
	"module", "transaction_safe", "transaction_safe_dynamic",
)

var types = buildSet(
	"bool", "char", "char8_t", "char16_t", "char32_t", "double", "float", "int", "long", "short", "signed",
	"unsigned", "void", "wchar_t", "size_t", "int8_t", "int16_t", "int32_t", "int64_t", "int_fast8_t",
	"int_fast16_t", "int_fast32_t", "int_fast64_t", "int_least8_t", "int_least16_t", "int_least32_t",
	"int_least64_t", "intmax_t", "intptr_t", "uint8_t", "uint16_t", "uint32_t", "uint64_t", "uint_fast8_t",
	"uint_fast16_t", "uint_fast32_t", "uint_fast64_t", "uint_least8_t", "uint_least16_t", "uint_least32_t",
	"uint_least64_t", "uintmax_t", "uintptr_t", "type_info", "bad_typeid", "bad_cast", "type_index",
	"clock_t", "time_t", "tm", "timespec", "ptrdiff_t", "nullptr_t", "max_align_t", "auto",

	"__m64", "__m128", "__m128i", "__m128d", "__m256", "__m256i", "__m256d", "__m512", "__m512i",
	"__m512d", "__mmask8", "__mmask16", "__mmask32", "__mmask64",

	"int8x8_t", "int16x4_t", "int32x2_t", "int64x1_t", "uint8x8_t", "uint16x4_t", "uint32x2_t",
	"uint64x1_t", "float32x2_t", "poly8x8_t", "poly16x4_t", "int8x16_t", "int16x8_t", "int32x4_t",
	"int64x2_t", "uint8x16_t", "uint16x8_t", "uint32x4_t", "uint64x2_t", "float32x4_t", "poly8x16_t",
	"poly16x8_t",
)

var special = buildSet(
	"this", "nullptr", "true", "false", "goto", "NULL",
)

func buildSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// classify returns the Color for a bare identifier, checking the three
// sets in the order TracySourceView.cpp does: Keyword, Type, Special.
func classify(ident string) Color {
	if len(ident) > identBufLimit {
		return Default
	}
	if _, ok := keywords[ident]; ok {
		return Keyword
	}
	if _, ok := types[ident]; ok {
		return Type
	}
	if _, ok := special[ident]; ok {
		return Special
	}
	return Default
}

// identBufLimit mirrors original_source's fixed 24-byte classification
// buffer: identifiers longer than this are never in the keyword/type/
// special sets, so they're classified Default without a map lookup.
const identBufLimit = 24
