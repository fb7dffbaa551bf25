package pkguid

type StringID interface {
	Generate() string
}

type NumberID interface {
	Generate() int64
}
