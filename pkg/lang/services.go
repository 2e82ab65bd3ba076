package lang

import (
	"fmt"
)

// Parser turns a document into a ParseResult.
type Parser interface {
	Parse(text string) ParseResult
}

// ParserServices groups the services that take part in parsing.
type ParserServices struct {
	Lexer          Lexer
	TokenBuilder   TokenBuilder
	ValueConverter ValueConverter
	Parser         Parser
}

// Services is the assembled, read-only service set of one language.
type Services struct {
	LanguageMetaData LanguageMetaData
	Grammar          *Grammar
	Parser           ParserServices
	Shared           *SharedServices
}

// Parse parses text with the language's parser.
func (s *Services) Parse(text string) ParseResult {
	return s.Parser.Parser.Parse(text)
}

// Module contributes service factories to a language. Nil fields leave the
// slot to earlier modules. Factories that take *Services may read the slots
// already built: metadata, grammar, token builder and value converter are
// built before the lexer, and the lexer before the parser.
type Module struct {
	LanguageMetaData func() LanguageMetaData
	Grammar          func() *Grammar
	TokenBuilder     func() TokenBuilder
	ValueConverter   func() ValueConverter
	Lexer            func(s *Services) (Lexer, error)
	Parser           func(s *Services) (Parser, error)
}

// merge returns m with every slot set in o replaced.
func (m Module) merge(o Module) Module {
	if o.LanguageMetaData != nil {
		m.LanguageMetaData = o.LanguageMetaData
	}
	if o.Grammar != nil {
		m.Grammar = o.Grammar
	}
	if o.TokenBuilder != nil {
		m.TokenBuilder = o.TokenBuilder
	}
	if o.ValueConverter != nil {
		m.ValueConverter = o.ValueConverter
	}
	if o.Lexer != nil {
		m.Lexer = o.Lexer
	}
	if o.Parser != nil {
		m.Parser = o.Parser
	}
	return m
}

// DefaultModule returns the framework defaults every language starts from.
func DefaultModule() Module {
	return Module{
		TokenBuilder:   func() TokenBuilder { return NewDefaultTokenBuilder() },
		ValueConverter: func() ValueConverter { return DefaultValueConverter{} },
		Lexer: func(s *Services) (Lexer, error) {
			l, err := NewDefaultLexer(s)
			if err != nil {
				return nil, err
			}
			return l, nil
		},
	}
}

type stage int

const (
	stageDefaults stage = iota
	stageGenerated
	stageOverrides
	numStages
)

// Builder assembles a language's services from three ordered layers:
// framework defaults, generated grammar modules and hand-written overrides.
// Later layers win regardless of the order the methods are called in.
type Builder struct {
	shared *SharedServices
	stages [numStages][]Module
}

// NewBuilder returns a builder whose services will reference shared.
func NewBuilder(shared *SharedServices) *Builder {
	return &Builder{shared: shared}
}

// Defaults adds framework default modules.
func (b *Builder) Defaults(modules ...Module) *Builder {
	b.stages[stageDefaults] = append(b.stages[stageDefaults], modules...)
	return b
}

// Generated adds modules derived from the grammar.
func (b *Builder) Generated(modules ...Module) *Builder {
	b.stages[stageGenerated] = append(b.stages[stageGenerated], modules...)
	return b
}

// Overrides adds hand-written modules that take precedence over everything
// else.
func (b *Builder) Overrides(modules ...Module) *Builder {
	b.stages[stageOverrides] = append(b.stages[stageOverrides], modules...)
	return b
}

// Build instantiates every service. Each call creates fresh instances.
func (b *Builder) Build() (*Services, error) {
	if b.shared == nil {
		return nil, fmt.Errorf("build services: no shared services")
	}

	var m Module
	for _, modules := range b.stages {
		for _, mod := range modules {
			m = m.merge(mod)
		}
	}

	switch {
	case m.LanguageMetaData == nil:
		return nil, missing("LanguageMetaData")
	case m.Grammar == nil:
		return nil, missing("Grammar")
	case m.TokenBuilder == nil:
		return nil, missing("TokenBuilder")
	case m.ValueConverter == nil:
		return nil, missing("ValueConverter")
	case m.Lexer == nil:
		return nil, missing("Lexer")
	case m.Parser == nil:
		return nil, missing("Parser")
	}

	s := &Services{
		LanguageMetaData: m.LanguageMetaData(),
		Grammar:          m.Grammar(),
		Shared:           b.shared,
	}
	s.Parser.TokenBuilder = m.TokenBuilder()
	s.Parser.ValueConverter = m.ValueConverter()

	lexer, err := m.Lexer(s)
	if err != nil {
		return nil, fmt.Errorf("build services: %w", err)
	}
	s.Parser.Lexer = lexer

	parser, err := m.Parser(s)
	if err != nil {
		return nil, fmt.Errorf("build services: %w", err)
	}
	s.Parser.Parser = parser

	if s.LanguageMetaData.LanguageID == "" {
		return nil, fmt.Errorf("build services: empty language id")
	}
	return s, nil
}

func missing(slot string) error {
	return fmt.Errorf("build services: missing %s", slot)
}

// AstReflection describes the AST types a set of languages produces.
type AstReflection interface {
	AllTypes() []string
	IsInstance(node any, typ string) bool
}

type emptyReflection struct{}

func (emptyReflection) AllTypes() []string          { return nil }
func (emptyReflection) IsInstance(any, string) bool { return false }

// SharedServices are shared by every language built on them.
type SharedServices struct {
	FileSystem      FileSystemProvider
	ServiceRegistry *ServiceRegistry
	AstReflection   AstReflection
}

// SharedModule contributes shared service factories. Nil fields leave the
// slot to earlier modules.
type SharedModule struct {
	FileSystem      func() FileSystemProvider
	ServiceRegistry func() *ServiceRegistry
	AstReflection   func() AstReflection
}

// SharedModuleContext carries the environment for the shared services.
type SharedModuleContext struct {
	FileSystemProvider func() FileSystemProvider
}

// EmptyFileSystem is a context without file access.
var EmptyFileSystem = SharedModuleContext{
	FileSystemProvider: func() FileSystemProvider { return emptyFileSystem{} },
}

// DefaultSharedModule returns the framework's shared defaults for ctx. A zero
// ctx behaves as EmptyFileSystem.
func DefaultSharedModule(ctx SharedModuleContext) SharedModule {
	fs := ctx.FileSystemProvider
	if fs == nil {
		fs = EmptyFileSystem.FileSystemProvider
	}
	return SharedModule{
		FileSystem:      fs,
		ServiceRegistry: NewServiceRegistry,
		AstReflection:   func() AstReflection { return emptyReflection{} },
	}
}

// NewSharedServices applies modules in order, later ones winning, and
// instantiates the result.
func NewSharedServices(modules ...SharedModule) (*SharedServices, error) {
	var m SharedModule
	for _, mod := range modules {
		if mod.FileSystem != nil {
			m.FileSystem = mod.FileSystem
		}
		if mod.ServiceRegistry != nil {
			m.ServiceRegistry = mod.ServiceRegistry
		}
		if mod.AstReflection != nil {
			m.AstReflection = mod.AstReflection
		}
	}
	switch {
	case m.FileSystem == nil:
		return nil, fmt.Errorf("build shared services: missing FileSystem")
	case m.ServiceRegistry == nil:
		return nil, fmt.Errorf("build shared services: missing ServiceRegistry")
	case m.AstReflection == nil:
		return nil, fmt.Errorf("build shared services: missing AstReflection")
	}
	return &SharedServices{
		FileSystem:      m.FileSystem(),
		ServiceRegistry: m.ServiceRegistry(),
		AstReflection:   m.AstReflection(),
	}, nil
}
