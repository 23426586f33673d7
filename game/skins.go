package game

import "gobble/server/ledger"

// PurchaseSkin is a ledger-only transaction gated by balance; the buyer
// does not need an active session. The store re-checks the balance inside
// its own lock, so the early check here only shapes the rejection.
func (e *Engine) PurchaseSkin(accountID, skinID string) error {
	skin, err := e.store.FindSkin(skinID)
	if err != nil {
		return err
	}
	inv, err := e.store.FindInventory(accountID)
	if err != nil {
		return err
	}
	if inv.Coins < skin.Price {
		return ledger.ErrInsufficientCoins
	}
	if err := e.store.AppendOwnedSkin(accountID, skinID); err != nil {
		return err
	}
	e.bc.ToOne(accountID, EventSkinPurchased, SkinPurchased{SkinID: skinID, Price: skin.Price})
	return nil
}

// EquipSkin equips an owned skin; the store unequips every other in the
// same update. When the account has an active player the live state is
// updated too and all observers are told.
func (e *Engine) EquipSkin(accountID, skinID string) error {
	if err := e.store.SetEquippedSkin(accountID, skinID); err != nil {
		return err
	}
	if p, ok := e.reg.Get(accountID); ok {
		p.setSkin(skinID)
		e.bc.ToAll(EventPlayerSkinChanged, SkinChanged{PlayerID: accountID, SkinID: skinID})
	}
	return nil
}
