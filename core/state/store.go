package state

import (
	"encoding/json"
	"errors"
	"math/big"

	"synthd/core/types"
	"synthd/crypto"
	"synthd/native/collateral"
	"synthd/storage"
)

const (
	accountPrefix        = "acct/"
	positionPrefix       = "pos/"
	tokenBalancePrefix   = "tok/bal/"
	tokenAllowancePrefix = "tok/alw/"
	tokenSupplyKey       = "tok/supply"
)

// Store provides typed access to the engine's persisted records on top of a
// KV surface. All records are JSON-encoded; addresses key records in their
// bech32 form so dumps stay human-readable.
type Store struct {
	kv KV
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

func (s *Store) get(key string, out interface{}) (bool, error) {
	raw, err := s.kv.Get([]byte(key))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) put(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.kv.Put([]byte(key), raw)
}

// Account loads the wallet record for an address, defaulting to the zero
// account when none has been stored yet.
func (s *Store) Account(addr crypto.Address) (*types.Account, error) {
	account := &types.Account{}
	if _, err := s.get(accountPrefix+addr.String(), account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *Store) PutAccount(addr crypto.Address, account *types.Account) error {
	return s.put(accountPrefix+addr.String(), account)
}

// Position loads the collateral ledger record for an address. A fresh
// position carries the address and zeroed balances.
func (s *Store) Position(addr crypto.Address) (*collateral.Position, error) {
	position := &collateral.Position{}
	found, err := s.get(positionPrefix+addr.String(), position)
	if err != nil {
		return nil, err
	}
	if !found {
		position.Address = addr
	}
	if position.DebtMinted == nil {
		position.DebtMinted = big.NewInt(0)
	}
	return position, nil
}

func (s *Store) PutPosition(position *collateral.Position) error {
	return s.put(positionPrefix+position.Address.String(), position)
}

// --- Debt token records ---

func (s *Store) bigInt(key string) (*big.Int, error) {
	value := new(big.Int)
	found, err := s.get(key, value)
	if err != nil {
		return nil, err
	}
	if !found {
		return big.NewInt(0), nil
	}
	return value, nil
}

func (s *Store) TokenBalance(addr crypto.Address) (*big.Int, error) {
	return s.bigInt(tokenBalancePrefix + addr.String())
}

func (s *Store) SetTokenBalance(addr crypto.Address, amount *big.Int) error {
	return s.put(tokenBalancePrefix+addr.String(), amount)
}

func (s *Store) TokenSupply() (*big.Int, error) {
	return s.bigInt(tokenSupplyKey)
}

func (s *Store) SetTokenSupply(amount *big.Int) error {
	return s.put(tokenSupplyKey, amount)
}

func (s *Store) TokenAllowance(owner, spender crypto.Address) (*big.Int, error) {
	return s.bigInt(tokenAllowancePrefix + owner.String() + "/" + spender.String())
}

func (s *Store) SetTokenAllowance(owner, spender crypto.Address, amount *big.Int) error {
	return s.put(tokenAllowancePrefix+owner.String()+"/"+spender.String(), amount)
}
