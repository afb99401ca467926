package registry

import "github.com/bunchhieng/coursetree/internal/model"

// MarkJustCreated flags id as created in this browser during the current
// session. It also writes the per-tree owner flag.
func (r *Registry) MarkJustCreated(id any) error {
	key := model.NormalizeID(id)
	if err := r.setFlag(prefixOwner + key); err != nil {
		return err
	}
	return r.setFlag(prefixJustCreated + key)
}

// ConsumeJustCreated reports whether id was flagged as just created and
// clears the flag.
func (r *Registry) ConsumeJustCreated(id any) (bool, error) {
	key := prefixJustCreated + model.NormalizeID(id)
	ok, err := r.flag(key)
	if err != nil || !ok {
		return false, err
	}
	return true, r.store.Delete(key)
}

// MarkToastShown records that the onboarding notice for id was shown.
func (r *Registry) MarkToastShown(id any) error {
	return r.setFlag(prefixToastShown + model.NormalizeID(id))
}

func (r *Registry) ToastShown(id any) (bool, error) {
	return r.flag(prefixToastShown + model.NormalizeID(id))
}

// ConsumeOnboarding reports whether the onboarding notice for id has not been
// shown yet, and marks it shown.
func (r *Registry) ConsumeOnboarding(id any) (bool, error) {
	shown, err := r.ToastShown(id)
	if err != nil || shown {
		return false, err
	}
	return true, r.MarkToastShown(id)
}

// MarkLiked records that this browser liked id. The guard is per browser
// only.
func (r *Registry) MarkLiked(id any) error {
	return r.setFlag(prefixLiked + model.NormalizeID(id))
}

func (r *Registry) HasLiked(id any) (bool, error) {
	return r.flag(prefixLiked + model.NormalizeID(id))
}
