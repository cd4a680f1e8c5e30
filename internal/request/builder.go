package request

import (
	"os"
	"strings"

	"github.com/flowerfulfort/scurl/internal/errdef"
	"github.com/flowerfulfort/scurl/internal/target"
)

// fileSeparator splits a -F argument into field name and file path.
const fileSeparator = "=@"

// Builder collects the pieces of a Config. Setters never fail; every
// validation happens in Build so a bad configuration is reported before
// any connection is opened.
type Builder struct {
	origin    string
	method    string
	methodSet bool
	body      string
	hasBody   bool
	headers   []string
	parts     []Part
	multipart bool
	follow    bool
	verbose   bool
	err       error
}

// NewBuilder returns a builder with the defaults: GET, no body, no
// redirects, quiet.
func NewBuilder() *Builder {
	return &Builder{method: string(MethodGet)}
}

// Target sets the origin URL.
func (b *Builder) Target(origin string) *Builder {
	b.origin = origin
	return b
}

// Method sets the method by name. Unknown names fail in Build.
func (b *Builder) Method(name string) *Builder {
	b.method = name
	b.methodSet = true
	return b
}

// Body sets the raw request payload.
func (b *Builder) Body(data string) *Builder {
	b.body = data
	b.hasBody = true
	return b
}

// Header appends literal "Name: Value" lines.
func (b *Builder) Header(lines ...string) *Builder {
	b.headers = append(b.headers, lines...)
	return b
}

// Multipart switches the request to multipart mode and appends one part per
// argument, either name=@path for a file or name=value for a field.
func (b *Builder) Multipart(specs ...string) *Builder {
	b.multipart = true
	for _, spec := range specs {
		p, err := ParsePart(spec)
		if err != nil {
			if b.err == nil {
				b.err = err
			}
			continue
		}
		b.parts = append(b.parts, p)
	}
	return b
}

// Attach appends a file attachment and switches to multipart mode.
func (b *Builder) Attach(name, path string) *Builder {
	b.multipart = true
	b.parts = append(b.parts, Part{Name: name, File: path})
	return b
}

// Field appends a plain form field and switches to multipart mode.
func (b *Builder) Field(name, value string) *Builder {
	b.multipart = true
	b.parts = append(b.parts, Part{Name: name, Value: value})
	return b
}

// FollowRedirects enables or disables redirect following.
func (b *Builder) FollowRedirects(follow bool) *Builder {
	b.follow = follow
	return b
}

// Verbose enables or disables the request/response head echo.
func (b *Builder) Verbose(verbose bool) *Builder {
	b.verbose = verbose
	return b
}

// Build validates the collected settings and returns an immutable Config.
// All failures carry errdef.CodeConfig.
func (b *Builder) Build() (*Config, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.origin == "" {
		return nil, errdef.New(errdef.CodeConfig, "host is missing")
	}

	t, err := target.Split(b.origin)
	if err != nil {
		return nil, err
	}

	method, err := ParseMethod(b.method)
	if err != nil {
		return nil, err
	}

	for _, h := range b.headers {
		if err := validateHeader(h); err != nil {
			return nil, err
		}
	}

	if b.multipart {
		if err := b.validateParts(); err != nil {
			return nil, err
		}
	}

	// Without an explicit -X, sending data implies POST. Multipart uploads
	// are always POST.
	if b.multipart || (!b.methodSet && b.hasBody) {
		method = MethodPost
	}

	return &Config{
		origin:  b.origin,
		target:  t,
		method:  method,
		body:    b.body,
		hasBody: b.hasBody,
		headers: append([]string(nil), b.headers...),
		parts:   append([]Part(nil), b.parts...),
		follow:  b.follow,
		verbose: b.verbose,
	}, nil
}

func (b *Builder) validateParts() error {
	if len(b.parts) == 0 {
		return errdef.New(errdef.CodeConfig, "multipart mode requested without any parts")
	}
	if b.hasBody {
		return errdef.New(errdef.CodeConfig, "a request body cannot be combined with multipart parts")
	}
	for _, p := range b.parts {
		if p.Name == "" {
			return errdef.New(errdef.CodeConfig, "multipart part has an empty field name")
		}
		if !p.IsFile() {
			continue
		}
		info, err := os.Stat(p.File)
		if err != nil {
			return errdef.Wrap(errdef.CodeConfig, err, "attachment %q", p.File)
		}
		if info.IsDir() {
			return errdef.New(errdef.CodeConfig, "attachment %q is a directory", p.File)
		}
	}
	return nil
}

// ParsePart parses a -F argument. name=@path yields a file attachment and
// name=value a plain field.
func ParsePart(spec string) (Part, error) {
	if name, path, ok := strings.Cut(spec, fileSeparator); ok {
		if name == "" || path == "" {
			return Part{}, errdef.New(errdef.CodeConfig, "malformed attachment %q (want name=@path)", spec)
		}
		return Part{Name: name, File: path}, nil
	}
	if name, value, ok := strings.Cut(spec, "="); ok && name != "" {
		return Part{Name: name, Value: value}, nil
	}
	return Part{}, errdef.New(errdef.CodeConfig, "malformed form part %q (want name=@path or name=value)", spec)
}

func validateHeader(line string) error {
	if strings.ContainsAny(line, "\r\n") {
		return errdef.New(errdef.CodeConfig, "header %q contains a line break", line)
	}
	name, _, ok := strings.Cut(line, ":")
	if !ok || strings.TrimSpace(name) == "" {
		return errdef.New(errdef.CodeConfig, "malformed header %q (want Name: Value)", line)
	}
	return nil
}
