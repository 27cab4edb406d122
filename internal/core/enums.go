package core

// Position is an officer's rank.
type Position string

const (
	PositionOverseer Position = "Overseer"
	PositionGuard    Position = "Guard"
	PositionWatcher  Position = "Watcher"
	PositionLabour   Position = "Labour"
	PositionWarden   Position = "Warden"
)

// Weapon is the weapon an officer carries.
type Weapon string

const (
	WeaponKnife      Weapon = "Knife"
	WeaponFlashPulse Weapon = "FlashPulse"
	WeaponChainRifle Weapon = "ChainRifle"
	WeaponPistol     Weapon = "Pistol"
	WeaponSniper     Weapon = "Sniper"
	WeaponGun        Weapon = "Gun"
	WeaponBaton      Weapon = "Baton"
	WeaponNone       Weapon = "None"
)

// Lookups are exact and case-sensitive.
var (
	positions = map[string]Position{
		string(PositionOverseer): PositionOverseer,
		string(PositionGuard):    PositionGuard,
		string(PositionWatcher):  PositionWatcher,
		string(PositionLabour):   PositionLabour,
		string(PositionWarden):   PositionWarden,
	}

	weapons = map[string]Weapon{
		string(WeaponKnife):      WeaponKnife,
		string(WeaponFlashPulse): WeaponFlashPulse,
		string(WeaponChainRifle): WeaponChainRifle,
		string(WeaponPistol):     WeaponPistol,
		string(WeaponSniper):     WeaponSniper,
		string(WeaponGun):        WeaponGun,
		string(WeaponBaton):      WeaponBaton,
		string(WeaponNone):       WeaponNone,
	}
)

// ParsePosition maps s to a known Position.
func ParsePosition(s string) (Position, bool) {
	p, ok := positions[s]
	return p, ok
}

// ParseWeapon maps s to a known Weapon.
func ParseWeapon(s string) (Weapon, bool) {
	w, ok := weapons[s]
	return w, ok
}
