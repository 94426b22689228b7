package model

//OperationKind is a kind of a filesystem mutation done (or attempted) by a synchronization.
type OperationKind string

const (
	OpKindNone      OperationKind = "none"
	OpKindMkdir     OperationKind = "mkdir"
	OpKindCopy      OperationKind = "copy"
	OpKindRemove    OperationKind = "remove"
	OpKindRemoveDir OperationKind = "remove_dir"
	OpKindScan      OperationKind = "scan"
)

//ResolveCopyOperationKind chooses the operation the copy-forward pass applies to the entry.
func (e *EntryInfo) ResolveCopyOperationKind() OperationKind {
	if e.IsCopyRequired() {
		return OpKindCopy
	}
	return OpKindNone
}

//ResolvePruneOperationKind chooses the operation the prune-backward pass applies to the entry.
func (e *EntryInfo) ResolvePruneOperationKind() OperationKind {
	if !e.IsObsolete() {
		return OpKindNone
	}
	if e.TargetPathInfo.IsDir {
		return OpKindRemoveDir
	}
	return OpKindRemove
}
