package accessservice

import "context"

// newAuthorizer returns the decision functions over the grant store. Decisions never write.
func newAuthorizer(store grantStore) *Authorizer {
	return &Authorizer{store: store}
}

// CanView is true for the author and for any user holding a grant, whatever its level.
func (a *Authorizer) CanView(ctx context.Context, actorID int, blog BlogRef) (bool, error) {
	if actorID <= 0 {
		return false, nil
	}

	if actorID == blog.AuthorID {
		return true, nil
	}

	g, err := a.store.find(ctx, blog.ID, actorID)
	if err != nil {
		return false, err
	}

	return g != nil, nil
}

// CanModify is true for the author and for holders of a full access grant.
func (a *Authorizer) CanModify(ctx context.Context, actorID int, blog BlogRef) (bool, error) {
	if actorID <= 0 {
		return false, nil
	}

	if actorID == blog.AuthorID {
		return true, nil
	}

	return a.store.existsWith(ctx, blog.ID, actorID, PermissionFullAccess)
}

func (a *Authorizer) CanDelete(ctx context.Context, actorID int, blog BlogRef) (bool, error) {
	return a.CanModify(ctx, actorID, blog)
}

// CanGrant only consults grants. Authors pass through the full access grant created with their blog.
func (a *Authorizer) CanGrant(ctx context.Context, actorID, blogID int) (bool, error) {
	if actorID <= 0 {
		return false, nil
	}

	return a.store.existsWith(ctx, blogID, actorID, PermissionFullAccess)
}

func (a *Authorizer) Abilities(ctx context.Context, actorID int, blog BlogRef) (Abilities, error) {
	var ab Abilities

	canModify, err := a.CanModify(ctx, actorID, blog)
	if err != nil {
		return ab, err
	}
	ab.CanUpdate = canModify

	canDelete, err := a.CanDelete(ctx, actorID, blog)
	if err != nil {
		return ab, err
	}
	ab.CanDelete = canDelete

	return ab, nil
}
