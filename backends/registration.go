package backends

import (
	"fmt"
	"sync"
)

var backends = []*BackendDescriptor{}
var backendsLock sync.Mutex

// Register registers a backend using the given descriptor.
func Register(descriptor *BackendDescriptor) {
	backendsLock.Lock()
	defer backendsLock.Unlock()

	if unsyncedGetByID(descriptor.ID) != nil {
		panic(fmt.Errorf("Tried to register backend %s more than once.", descriptor.ID))
	}
	backends = append(backends, descriptor)
}

func unsyncedGetByID(id string) (backendDescriptor *BackendDescriptor) {
	for _, foundDescriptor := range backends {
		if foundDescriptor.ID == id {
			backendDescriptor = foundDescriptor
			return
		}
	}
	return
}

// GetByID returns the backend descriptor which matches the wanted ID.
// If no such backend exists, nil is returned.
func GetByID(id string) (backendDescriptor *BackendDescriptor) {
	backendsLock.Lock()
	defer backendsLock.Unlock()

	backendDescriptor = unsyncedGetByID(id)
	return
}

// GetAll returns an array of all backend descriptors.
func GetAll() (backendDescriptors []*BackendDescriptor) {
	backendsLock.Lock()
	defer backendsLock.Unlock()

	backendDescriptors = make([]*BackendDescriptor, len(backends))
	copy(backendDescriptors, backends)
	return
}

// Dial looks up the backend with the given ID and opens a connection through
// it.
func Dial(id string, params *BackendConstructionParams) (Conn, error) {
	descriptor := GetByID(id)
	if descriptor == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, id)
	}
	return descriptor.Dial(params)
}
