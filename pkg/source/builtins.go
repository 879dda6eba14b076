package source

// Return types of well-known global functions.
var globalCalls = map[string]*Type{
	"String":             String,
	"Number":             Number,
	"Boolean":            Boolean,
	"BigInt":             BigInt,
	"Symbol":             Primitive("symbol"),
	"parseInt":           Number,
	"parseFloat":         Number,
	"isNaN":              Boolean,
	"isFinite":           Boolean,
	"encodeURI":          String,
	"encodeURIComponent": String,
	"decodeURI":          String,
	"decodeURIComponent": String,
	"escape":             String,
	"unescape":           String,
	"btoa":               String,
	"atob":               String,
	"Date":               String,
	"Array":              ArrayOf(Any),
	"require":            Any,
	"setTimeout":         Named("NodeJS.Timeout"),
	"setInterval":        Named("NodeJS.Timeout"),
}

// Return types of static members, keyed by "Object.member".
var staticCalls = map[string]*Type{
	"Math.abs":             Number,
	"Math.ceil":            Number,
	"Math.floor":           Number,
	"Math.round":           Number,
	"Math.trunc":           Number,
	"Math.max":             Number,
	"Math.min":             Number,
	"Math.pow":             Number,
	"Math.sqrt":            Number,
	"Math.random":          Number,
	"Math.sign":            Number,
	"Math.log":             Number,
	"Date.now":             Number,
	"Date.parse":           Number,
	"JSON.stringify":       String,
	"JSON.parse":           Any,
	"Array.isArray":        Boolean,
	"Array.from":           ArrayOf(Any),
	"Array.of":             ArrayOf(Any),
	"Number.isInteger":     Boolean,
	"Number.isNaN":         Boolean,
	"Number.isFinite":      Boolean,
	"Number.isSafeInteger": Boolean,
	"Number.parseInt":      Number,
	"Number.parseFloat":    Number,
	"Object.keys":          ArrayOf(String),
	"Object.values":        ArrayOf(Any),
	"Object.entries":       ArrayOf(Named("[string, any]")),
	"String.fromCharCode":  String,
	"String.raw":           String,
	"Symbol.for":           Primitive("symbol"),
}

// Global values that are not declared anywhere in a project.
var globalValues = map[string]*Type{
	"NaN":       Number,
	"Infinity":  Number,
	"undefined": Undefined,
	"Math":      Named("Math"),
	"JSON":      Named("JSON"),
	"console":   Named("Console"),
	"window":    Named("Window & typeof globalThis"),
	"document":  Named("Document"),
}

// Constructors whose instance type is not simply their name.
var constructors = map[string]*Type{
	"Map":      Named("Map<any, any>"),
	"WeakMap":  Named("WeakMap<object, any>"),
	"Set":      Named("Set<unknown>"),
	"WeakSet":  Named("WeakSet<object>"),
	"Array":    ArrayOf(Any),
	"Promise":  Named("Promise<unknown>"),
	"Object":   Named("Object"),
	"String":   Named("String"),
	"Number":   Named("Number"),
	"Boolean":  Named("Boolean"),
	"Function": Named("Function"),
}

var stringMethods = map[string]*Type{
	"toUpperCase":       String,
	"toLowerCase":       String,
	"toLocaleUpperCase": String,
	"toLocaleLowerCase": String,
	"trim":              String,
	"trimStart":         String,
	"trimEnd":           String,
	"slice":             String,
	"substring":         String,
	"substr":            String,
	"padStart":          String,
	"padEnd":            String,
	"repeat":            String,
	"replace":           String,
	"replaceAll":        String,
	"concat":            String,
	"charAt":            String,
	"normalize":         String,
	"split":             ArrayOf(String),
	"includes":          Boolean,
	"startsWith":        Boolean,
	"endsWith":          Boolean,
	"indexOf":           Number,
	"lastIndexOf":       Number,
	"charCodeAt":        Number,
	"codePointAt":       UnionOf(Number, Undefined),
	"localeCompare":     Number,
	"search":            Number,
}

var arrayMethods = map[string]*Type{
	"join":        String,
	"includes":    Boolean,
	"some":        Boolean,
	"every":       Boolean,
	"indexOf":     Number,
	"lastIndexOf": Number,
	"findIndex":   Number,
	"push":        Number,
	"unshift":     Number,
}

// Array methods returning an array of the receiver's element type.
var arraySelfMethods = map[string]bool{
	"slice":   true,
	"concat":  true,
	"filter":  true,
	"reverse": true,
	"sort":    true,
	"splice":  true,
}

// Methods with the same result on any receiver.
var anyMethods = map[string]*Type{
	"toString":       String,
	"toLocaleString": String,
	"toFixed":        String,
	"toPrecision":    String,
	"toExponential":  String,
	"toISOString":    String,
	"toJSON":         String,
	"hasOwnProperty": Boolean,
	"getTime":        Number,
	"valueOf":        Any,
}
