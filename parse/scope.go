package parse

// A block scope. Ordinary names are recorded too, an ordinary declaration
// hides a typedef name of an enclosing scope.
type scope struct {
	typedefs map[string]bool
	tags     map[string]CType
}

func newScope() *scope {
	return &scope{
		typedefs: make(map[string]bool),
		tags:     make(map[string]CType),
	}
}

// scopeStack tracks the names the grammar depends on. The file scope is at
// the bottom and is never popped.
type scopeStack struct {
	scopes []*scope
}

func newScopeStack() *scopeStack {
	return &scopeStack{scopes: []*scope{newScope()}}
}

func (s *scopeStack) push() {
	s.scopes = append(s.scopes, newScope())
}

func (s *scopeStack) pop() {
	if len(s.scopes) > 1 {
		s.scopes = s.scopes[:len(s.scopes)-1]
	}
}

func (s *scopeStack) depth() int {
	return len(s.scopes)
}

// truncate pops back to a depth saved earlier.
func (s *scopeStack) truncate(depth int) {
	if depth >= 1 && depth < len(s.scopes) {
		s.scopes = s.scopes[:depth]
	}
}

func (s *scopeStack) current() *scope {
	return s.scopes[len(s.scopes)-1]
}

func (s *scopeStack) defineTypedef(name string) {
	s.current().typedefs[name] = true
}

func (s *scopeStack) defineOrdinary(name string) {
	s.current().typedefs[name] = false
}

// isTypedef reports whether the nearest scope mentioning name declared it
// as a typedef.
func (s *scopeStack) isTypedef(name string) bool {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if isTypedef, ok := s.scopes[i].typedefs[name]; ok {
			return isTypedef
		}
	}
	return false
}

func (s *scopeStack) defineTag(name string, t CType) {
	s.current().tags[name] = t
}

func (s *scopeStack) lookupTag(name string) (CType, bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if t, ok := s.scopes[i].tags[name]; ok {
			return t, true
		}
	}
	return nil, false
}
