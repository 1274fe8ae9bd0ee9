package command

import "sync"

var (
	registryMu sync.RWMutex
	registry   = map[string]Command{}
)

// RegisterCommand adds cmd to the registry after wrapping it with the given
// middlewares, innermost first.
func RegisterCommand(cmd Command, mws ...Middleware) {
	wrapped := ApplyMiddlewares(cmd, mws...)
	registryMu.Lock()
	registry[wrapped.Name()] = wrapped
	registryMu.Unlock()
}

func GetCommand(name string) (Command, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	cmd, ok := registry[name]
	return cmd, ok
}

func AllCommands() []Command {
	registryMu.RLock()
	defer registryMu.RUnlock()
	list := make([]Command, 0, len(registry))
	for _, cmd := range registry {
		list = append(list, cmd)
	}
	return list
}
