package services

import "fmt"

// Ability 授权动作
type Ability string

const (
	AbilityView    Ability = "view"
	AbilityUpdate  Ability = "update"
	AbilityDelete  Ability = "delete"
	AbilityReorder Ability = "reorder"
)

// Ownable 可授权的实体
type Ownable interface {
	EntityType() string
	Owner() uint
}

type rule func(userID uint, entity Ownable) bool

func ownerOnly(userID uint, entity Ownable) bool {
	return userID != 0 && entity.Owner() == userID
}

// Authorizer 按实体类型注册的策略，未注册的类型或动作一律拒绝
type Authorizer struct {
	policies map[string]map[Ability]rule
}

// NewAuthorizer 注册 task 和 project 的策略
func NewAuthorizer() *Authorizer {
	a := &Authorizer{policies: make(map[string]map[Ability]rule)}
	a.register("task", map[Ability]rule{
		AbilityView:    ownerOnly,
		AbilityUpdate:  ownerOnly,
		AbilityDelete:  ownerOnly,
		AbilityReorder: ownerOnly,
	})
	a.register("project", map[Ability]rule{
		AbilityView:   ownerOnly,
		AbilityUpdate: ownerOnly,
		AbilityDelete: ownerOnly,
	})
	return a
}

func (a *Authorizer) register(entityType string, rules map[Ability]rule) {
	a.policies[entityType] = rules
}

// Authorize 检查 userID 是否可以对 entity 执行 ability
func (a *Authorizer) Authorize(userID uint, ability Ability, entity Ownable) error {
	rules, ok := a.policies[entity.EntityType()]
	if !ok {
		return fmt.Errorf("%w: no policy for %s", ErrForbidden, entity.EntityType())
	}
	allow, ok := rules[ability]
	if !ok || !allow(userID, entity) {
		return fmt.Errorf("%w: %s %s", ErrForbidden, ability, entity.EntityType())
	}
	return nil
}

// AuthorizeAll 批量检查：requested 中只要有一个不在 owned 中就整体拒绝
func AuthorizeAll(requested, owned []uint) error {
	ownedSet := make(map[uint]struct{}, len(owned))
	for _, id := range owned {
		ownedSet[id] = struct{}{}
	}

	var missing []uint
	for _, id := range requested {
		if _, ok := ownedSet[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 || len(ownedSet) != len(requested) {
		return fmt.Errorf("%w: ids %v are not owned by the caller", ErrForbidden, missing)
	}
	return nil
}
