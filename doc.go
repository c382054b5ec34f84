/*
Copyright 2025 eatmoreapple

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
Package dao is a declarative data access layer over database/sql.

Operations are declared once, with their SQL text or the key of a template,
and implemented by the engine. Calls are routed to one of several
datasources, bound to positional, named or record parameters, paged with
the dialect of the datasource and mapped to Go values.

Basic Usage:

	cfg, err := config.Load("dao.yaml")
	if err != nil {
		// handle error
		panic(err)
	}
	engine, err := dao.Open(cfg)
	if err != nil {
		// handle error
		panic(err)
	}
	defer engine.Close()

	type UserMapper struct {
		ByDept func(ctx context.Context, dept int64) ([]User, error)                             `sql:"select * from t_user where dept_id = ?"`
		Page   func(ctx context.Context, page *dao.Page[User], f Filter) (*dao.Page[User], error) `sqlkey:"user.page" datasource:"replica"`
	}
	mapper, err := dao.Implement[UserMapper](engine)
	if err != nil {
		// handle error
		panic(err)
	}

	page := dao.NewPage[User](0, 20)
	page.AutoCount = true
	if _, err = mapper.Page(ctx, page, Filter{Dept: 1}); err != nil {
		// handle error
		panic(err)
	}
	fmt.Println(page.TotalCount, page.Result)

Features:

  - Declared operations by struct tags or Declaration values
  - Templates reloadable at runtime
  - Routing by declaration, by context or by managed method
  - Paging with offset-limit, limit-offset and row-number dialects
  - Transactions bound to the context
  - Middleware support

Failures are returned as *Error. Match their kind with errors.Is, for
example errors.Is(err, dao.ErrMapping).
*/
package dao
