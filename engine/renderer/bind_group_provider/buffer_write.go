package bind_group_provider

// BufferWrite describes one queued GPU buffer write: Data lands at Offset bytes into the
// buffer bound at Binding on Provider.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}
