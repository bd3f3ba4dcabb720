package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/localstore"
	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newBrowseCmd(a *app) *cobra.Command {
	var category, inStock, search, sort string
	var page, limit int

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "List one page of the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stock, err := catalog.ParseStockFilter(inStock)
			if err != nil {
				return err
			}
			q := models.CatalogQuery{
				Category: models.Category(category),
				InStock:  stock,
				Search:   search,
				Sort:     models.SortKey(sort),
				Page:     page,
				Limit:    limit,
				Lang:     a.lang,
			}
			if err := q.Validate(); err != nil {
				return err
			}

			result, err := a.client.FetchPage(cmd.Context(), q)
			if err != nil {
				return err
			}
			printProducts(cmd.OutOrStdout(), result, a.lang)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", string(models.CategoryAll), "kitchen, laundry, floor, bathroom or all")
	cmd.Flags().StringVar(&inStock, "in-stock", "all", "true, false or all")
	cmd.Flags().StringVar(&search, "search", "", "match product names in either language")
	cmd.Flags().StringVar(&sort, "sort", string(models.SortDefault), "default, price-asc, price-desc or name")
	cmd.Flags().IntVar(&page, "page", catalog.DefaultPage, "page number")
	cmd.Flags().IntVar(&limit, "limit", catalog.DefaultLimit, "products per page")
	return cmd
}

func printProducts(out io.Writer, result *models.CatalogResult, lang string) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range result.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name.Get(lang), p.Category, p.Price, stockLabel(p.InStock))
		for i, v := range p.Variants {
			fmt.Fprintf(w, "\t  [%d] %s\t\t%s\t%s\n", i, v.Name.Get(lang), v.Price, stockLabel(v.InStock))
		}
	}
	_ = w.Flush()

	pg := result.Pagination
	fmt.Fprintf(out, "page %d of %d, %d products\n", pg.Page, pg.Pages, pg.Total)
}

func stockLabel(inStock bool) string {
	if inStock {
		return "in stock"
	}
	return "out of stock"
}

// variantFlag turns the --variant flag into a variant index, nil when unset.
func variantFlag(cmd *cobra.Command, value int) *int {
	if !cmd.Flags().Changed("variant") {
		return nil
	}
	return &value
}

func newCartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Inspect and change the cart",
	}
	cmd.AddCommand(
		newCartAddCmd(a),
		newCartRemoveCmd(a),
		newCartSetCmd(a),
		newCartShowCmd(a),
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the cart",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.ledger.Clear()
			},
		},
	)
	return cmd
}

func newCartAddCmd(a *app) *cobra.Command {
	var variant, qty int
	cmd := &cobra.Command{
		Use:   "add PRODUCT_ID",
		Short: "Add a product, or one of its variants, to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadCatalog(cmd.Context()); err != nil {
				return err
			}
			if err := a.ledger.Add(a.catalog, args[0], variantFlag(cmd, variant), qty); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cart has %d items\n", a.ledger.Count())
			return nil
		},
	}
	cmd.Flags().IntVar(&variant, "variant", 0, "variant index")
	cmd.Flags().IntVar(&qty, "qty", 1, "quantity to add")
	return cmd
}

func newCartRemoveCmd(a *app) *cobra.Command {
	var variant int
	cmd := &cobra.Command{
		Use:   "remove PRODUCT_ID",
		Short: "Remove a line from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.ledger.Remove(args[0], variantFlag(cmd, variant))
		},
	}
	cmd.Flags().IntVar(&variant, "variant", 0, "variant index")
	return cmd
}

func newCartSetCmd(a *app) *cobra.Command {
	var variant int
	cmd := &cobra.Command{
		Use:   "set PRODUCT_ID QUANTITY",
		Short: "Set the quantity of a cart line; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return models.Invalidf("quantity must be an integer")
			}
			return a.ledger.SetQuantity(args[0], variantFlag(cmd, variant), n)
		},
	}
	cmd.Flags().IntVar(&variant, "variant", 0, "variant index")
	return cmd
}

func newCartShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the cart priced against the current catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if a.ledger.Empty() {
				fmt.Fprintln(out, "cart is empty")
				return nil
			}
			if err := a.loadCatalog(cmd.Context()); err != nil {
				return err
			}

			resolved := a.ledger.ResolvedLines(a.catalog, a.lang)
			printCart(out, resolved, a.ledger.Total(a.catalog))
			if missing := len(a.ledger.Lines()) - len(resolved); missing > 0 {
				fmt.Fprintf(out, "%d line(s) no longer in the catalog\n", missing)
			}
			return nil
		},
	}
}

func printCart(out io.Writer, lines []cart.ResolvedLine, total decimal.Decimal) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tVARIANT\tNAME\tQTY\tPRICE\tSUBTOTAL")
	for _, l := range lines {
		variant := "-"
		if l.VariantIndex != nil {
			variant = strconv.Itoa(*l.VariantIndex)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", l.ProductID, variant, l.Name, l.Quantity, l.UnitPrice, l.Subtotal())
	}
	_ = w.Flush()
	fmt.Fprintf(out, "total: %s\n", total)
}

func newCheckoutCmd(a *app) *cobra.Command {
	var customer models.Customer
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Submit the cart as an order and print the messaging link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if err := customer.Validate(); err != nil {
				return err
			}
			// Without any catalog the order still goes through; lines that
			// cannot be priced are submitted as unknown products.
			if err := a.loadCatalog(cmd.Context()); err != nil {
				util.GetLogger().Warn("No catalog available, submitting unpriced lines", zap.Error(err))
			}

			coordinator := checkout.NewCoordinator(a.ledger, a.catalog, a.history, a.client, a.cfg.Shop.WhatsAppPhone)

			if dryRun {
				message, err := coordinator.Preview(customer, a.lang)
				if err != nil {
					return err
				}
				fmt.Fprint(out, message)
				return nil
			}

			outcome, err := coordinator.Submit(cmd.Context(), customer, a.lang)
			if err != nil {
				return err
			}
			if outcome.Empty() {
				fmt.Fprintln(out, "cart is empty, nothing to submit")
				return nil
			}

			fmt.Fprintln(out, outcome.Notice)
			if outcome.RemoteSaved {
				fmt.Fprintf(out, "order id: %s\n", outcome.RemoteOrderID)
			}
			if outcome.HistoryErr != nil {
				fmt.Fprintf(out, "warning: order could not be kept in local history: %v\n", outcome.HistoryErr)
			}
			fmt.Fprintf(out, "total: %s\n", outcome.Order.Total)
			fmt.Fprintln(out, outcome.HandoffURL)
			return nil
		},
	}

	cmd.Flags().StringVar(&customer.Name, "name", "", "customer name (required)")
	cmd.Flags().StringVar(&customer.Phone, "phone", "", "customer phone (required)")
	cmd.Flags().StringVar(&customer.Address, "address", "", "address or notes")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the order message without submitting")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	var localOnly, clear bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List orders submitted from this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if clear {
				return a.history.Clear()
			}

			entries := a.history.List()
			if localOnly {
				entries = a.history.LocalOnly()
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "no orders yet")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tTOTAL\tITEMS\tCUSTOMER\tSAVED\tREMOTE ID")
			for _, e := range entries {
				saved := "local only"
				if e.RemoteSaved {
					saved = "server"
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
					e.Date, e.Order.Total, len(e.Order.Items), e.Order.Customer.Name, saved, e.RemoteOrderID)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&localOnly, "local-only", false, "only orders the server never acknowledged")
	cmd.Flags().BoolVar(&clear, "clear", false, "delete the local history")
	return cmd
}

func newLangCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lang [ar|en]",
		Short: "Show or save the display language",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), a.lang)
				return nil
			}
			if !models.ValidLang(args[0]) {
				return models.Invalidf("unknown language %q", args[0])
			}
			return a.store.Set(localstore.KeyLanguage, []byte(args[0]))
		},
	}
}
