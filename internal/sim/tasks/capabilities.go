package tasks

// cancellableWhileActive is the single source of truth for which kinds may be
// interrupted once they are the ship's active task.
var cancellableWhileActive = [KindCount]bool{
	KindAwaitingSignal: true,
	KindConstruct:      true,
	KindRequestAccess:  true,
	KindDockAtEntity:   false, // bay clamps engaged
	KindUndock:         false,
	KindExchangeWares:  true,
	KindMoveToEntity:   true,
	KindUseGate:        false, // mid-transit
	KindMineAsteroid:   true,
	KindHarvestGas:     true,
}

func CancellableWhileActive(k Kind) bool {
	if !k.Valid() {
		return false
	}
	return cancellableWhileActive[k]
}
